package questionbank

// Category is one of the six RIASEC interest categories. The declaration
// order below is the canonical ranking tie-break order.
type Category string

const (
	Realistic     Category = "R"
	Investigative Category = "I"
	Artistic      Category = "A"
	Social        Category = "S"
	Enterprising  Category = "E"
	Conventional  Category = "C"
)

var categoryOrder = []Category{
	Realistic,
	Investigative,
	Artistic,
	Social,
	Enterprising,
	Conventional,
}

var categoryLabels = map[Category]string{
	Realistic:     "Realistic",
	Investigative: "Investigative",
	Artistic:      "Artistic",
	Social:        "Social",
	Enterprising:  "Enterprising",
	Conventional:  "Conventional",
}

// Categories returns the six categories in canonical order.
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// Rank returns the position of c in the canonical order, or len(order)
// for an unknown category so unknowns always sort last.
func Rank(c Category) int {
	for i, cat := range categoryOrder {
		if cat == c {
			return i
		}
	}
	return len(categoryOrder)
}

// Label returns the human-readable name for a category code.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// Valid reports whether c is one of the six known categories.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Question is a single Likert item of the interest questionnaire.
type Question struct {
	ID       int      `json:"id"`
	Text     string   `json:"text"`
	Category Category `json:"category"`
}

var bank = []Question{
	{1, "I like to work on cars or machines.", Realistic},
	{2, "I enjoy building things with my hands.", Realistic},
	{3, "I like to work outdoors.", Realistic},
	{4, "I enjoy using tools and operating equipment.", Realistic},
	{5, "I like physical work more than desk work.", Realistic},
	{6, "I like to do puzzles and solve problems.", Investigative},
	{7, "I enjoy doing science experiments.", Investigative},
	{8, "I like to analyze data and find patterns.", Investigative},
	{9, "I enjoy reading about how things work.", Investigative},
	{10, "I like to ask questions and investigate ideas.", Investigative},
	{11, "I enjoy creative writing or drawing.", Artistic},
	{12, "I like to play a musical instrument or sing.", Artistic},
	{13, "I enjoy designing posters, rooms, or clothing.", Artistic},
	{14, "I like expressing myself in original ways.", Artistic},
	{15, "I enjoy acting, dancing, or performing.", Artistic},
	{16, "I like to help people with their problems.", Social},
	{17, "I enjoy teaching or explaining things to others.", Social},
	{18, "I like to volunteer for community causes.", Social},
	{19, "I enjoy working in groups more than alone.", Social},
	{20, "I like taking care of people who need support.", Social},
	{21, "I like to lead a team toward a goal.", Enterprising},
	{22, "I enjoy persuading people to see my point of view.", Enterprising},
	{23, "I like to sell things or promote ideas.", Enterprising},
	{24, "I enjoy starting my own projects or ventures.", Enterprising},
	{25, "I like making decisions that affect others.", Enterprising},
	{26, "I like to keep my records and files well organized.", Conventional},
	{27, "I enjoy working with numbers and spreadsheets.", Conventional},
	{28, "I like following clear procedures and schedules.", Conventional},
	{29, "I enjoy checking work for errors and details.", Conventional},
	{30, "I like planning budgets and tracking expenses.", Conventional},
}

// Questions returns the full questionnaire in its fixed order. The returned
// slice is a copy; callers may not mutate the bank.
func Questions() []Question {
	out := make([]Question, len(bank))
	copy(out, bank)
	return out
}

// ByID returns the question with the given id.
func ByID(id int) (Question, bool) {
	for _, q := range bank {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}
