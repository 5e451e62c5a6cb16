package rules

// Built-in replies.
var (
	FruitResponses = []string{"Apple", "Orange", "Banana", "Cherry"}
	HiResponses    = []string{"Hi how are you?"}
	ByeResponses   = []string{"Bye! dude"}
	GifResponses   = []string{"http://giphy.com/gifs/YFRoLKy1kiY00"}
)

// BuildRules returns the built-in rule table. It cannot fail: the entries
// below are static and validated by the package tests.
func BuildRules() *Table {
	t, err := NewTable(
		Rule{Name: "fruit", Trigger: Literal("fruit"), Responses: FruitResponses},
		Rule{Name: "hi", Trigger: Literal("hi"), Responses: HiResponses},
		Rule{Name: "bye", Trigger: MustPattern(`\bbye\b`), Responses: ByeResponses},
		Rule{Name: "gif", Trigger: Literal("gif"), Responses: GifResponses},
	)
	if err != nil {
		panic(err)
	}
	return t
}
