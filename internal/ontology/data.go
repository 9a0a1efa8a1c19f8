package ontology

// seedSkills and seedEdges are the static ontology data loaded at startup.
// Default builds the ontology from this in-memory seed; no data file is
// read. The seed covers the relationships named explicitly by the spec's
// testable properties and end-to-end scenarios.
var seedSkills = []Skill{
	{ID: "Python", Aliases: []string{"py"}, Category: "language"},
	{ID: "Django", Category: "framework"},
	{ID: "Flask", Category: "framework"},
	{ID: "FastAPI", Category: "framework"},
	{ID: "JavaScript", Aliases: []string{"js"}, Category: "language"},
	{ID: "TypeScript", Aliases: []string{"ts"}, Category: "language"},
	{ID: "React", Category: "framework"},
	{ID: "Vue", Aliases: []string{"vue.js"}, Category: "framework"},
	{ID: "Go", Aliases: []string{"golang"}, Category: "language"},
	{ID: "Java", Category: "language"},
	{ID: "Kotlin", Category: "language"},
	{ID: "AWS", Category: "platform"},
	{ID: "GCP", Category: "platform"},
}

var seedEdges = map[string][]Edge{
	"Python": {
		{To: "Django", Confidence: 0.9},
		{To: "Flask", Confidence: 0.85},
		{To: "FastAPI", Confidence: 0.85},
	},
	"JavaScript": {
		{To: "TypeScript", Confidence: 0.9},
		{To: "React", Confidence: 0.7},
		{To: "Vue", Confidence: 0.7},
	},
}

// Default returns an Ontology populated from the built-in seed data.
func Default() (*Ontology, error) {
	return New(seedSkills, seedEdges)
}
