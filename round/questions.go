// round/questions.go
package round

import (
	"math/rand"
	"strings"

	"github.com/shawncarter/NewQuiz/models"
)

// DefaultCategories is the fallback free-text category pool when a session
// configuration selects none.
var DefaultCategories = []string{
	"Animals", "Countries", "Cities", "Foods", "Movies", "Books",
	"TV Shows", "Sports", "Colors", "Fruits", "Vegetables", "Flowers",
	"Musical Instruments", "Board Games", "Celebrities", "Superheroes",
	"Things in a Kitchen", "Things that Fly", "Ocean Creatures",
	"Farm Animals", "Types of Birds", "Insects", "Trees", "Electronics",
}

var letters = []string{
	"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M",
	"N", "O", "P", "Q", "R", "S", "T", "U", "V", "W", "X", "Y", "Z",
}

// QuestionBank is the built-in question source. A session draws multiple
// choice questions, per-subject specialist sets, and the shared general
// knowledge set from it deterministically.
type QuestionBank struct {
	choice     []models.Question
	specialist map[string][]models.Question
	general    []models.Question
}

// NewQuestionBank returns the embedded bank.
func NewQuestionBank() *QuestionBank {
	return &QuestionBank{
		choice:     choiceQuestions,
		specialist: specialistQuestions,
		general:    generalKnowledgeQuestions,
	}
}

// Choice picks one multiple-choice question, skipping already used IDs.
// When the bank is exhausted the used filter resets.
func (b *QuestionBank) Choice(rng *rand.Rand, usedIDs map[int]bool) models.Question {
	available := make([]models.Question, 0, len(b.choice))
	for _, q := range b.choice {
		if !usedIDs[q.ID] {
			available = append(available, q)
		}
	}
	if len(available) == 0 {
		available = b.choice
	}
	return available[rng.Intn(len(available))]
}

// Specialist assembles n questions for a subject. When the subject's pool is
// short, general knowledge questions fill the remainder — the synchronous
// fallback that lets a ready-check proceed. Returns nil only when even the
// fallback pool cannot fill a single question.
func (b *QuestionBank) Specialist(subject string, n int, rng *rand.Rand) []models.Question {
	pool := b.specialist[normalizeSubject(subject)]
	set := pickN(pool, n, rng)
	if len(set) < n {
		set = append(set, pickNExcluding(b.general, n-len(set), rng, set)...)
	}
	if len(set) == 0 {
		return nil
	}
	return set
}

// GeneralKnowledge assembles the shared simultaneous-phase question set.
func (b *QuestionBank) GeneralKnowledge(n int, rng *rand.Rand) []models.Question {
	return pickN(b.general, n, rng)
}

// Subjects lists the specialist subjects the bank can serve directly.
func (b *QuestionBank) Subjects() []string {
	subjects := make([]string, 0, len(b.specialist))
	for s := range b.specialist {
		subjects = append(subjects, s)
	}
	return subjects
}

func normalizeSubject(subject string) string {
	return strings.ToLower(strings.TrimSpace(subject))
}

// pickN draws up to n distinct questions from pool in rng order.
func pickN(pool []models.Question, n int, rng *rand.Rand) []models.Question {
	if n <= 0 || len(pool) == 0 {
		return nil
	}
	idx := rng.Perm(len(pool))
	if n > len(pool) {
		n = len(pool)
	}
	out := make([]models.Question, 0, n)
	for _, i := range idx[:n] {
		out = append(out, pool[i])
	}
	return out
}

func pickNExcluding(pool []models.Question, n int, rng *rand.Rand, exclude []models.Question) []models.Question {
	seen := make(map[int]bool, len(exclude))
	for _, q := range exclude {
		seen[q.ID] = true
	}
	filtered := make([]models.Question, 0, len(pool))
	for _, q := range pool {
		if !seen[q.ID] {
			filtered = append(filtered, q)
		}
	}
	return pickN(filtered, n, rng)
}

var choiceQuestions = []models.Question{
	{ID: 101, Text: "What is the largest mammal in the world?", Choices: []string{"Blue Whale", "African Elephant", "Giraffe", "Hippopotamus"}, CorrectAnswer: "Blue Whale", Category: "Animals"},
	{ID: 102, Text: "What is the smallest country in the world?", Choices: []string{"Monaco", "Vatican City", "San Marino", "Liechtenstein"}, CorrectAnswer: "Vatican City", Category: "Geography"},
	{ID: 103, Text: "What is the largest bone in the human body?", Choices: []string{"Femur", "Tibia", "Humerus", "Fibula"}, CorrectAnswer: "Femur", Category: "Science"},
	{ID: 104, Text: "Which planet is known as the Red Planet?", Choices: []string{"Venus", "Mars", "Jupiter", "Mercury"}, CorrectAnswer: "Mars", Category: "Science"},
	{ID: 105, Text: "In which year did the Titanic sink?", Choices: []string{"1905", "1912", "1918", "1923"}, CorrectAnswer: "1912", Category: "History"},
	{ID: 106, Text: "What is the capital of Australia?", Choices: []string{"Sydney", "Melbourne", "Canberra", "Perth"}, CorrectAnswer: "Canberra", Category: "Geography"},
	{ID: 107, Text: "How many hearts does an octopus have?", Choices: []string{"One", "Two", "Three", "Four"}, CorrectAnswer: "Three", Category: "Animals"},
	{ID: 108, Text: "Which element has the chemical symbol Au?", Choices: []string{"Silver", "Gold", "Aluminium", "Argon"}, CorrectAnswer: "Gold", Category: "Science"},
	{ID: 109, Text: "Who painted the Mona Lisa?", Choices: []string{"Michelangelo", "Raphael", "Leonardo da Vinci", "Donatello"}, CorrectAnswer: "Leonardo da Vinci", Category: "Art"},
	{ID: 110, Text: "What is the longest river in the world?", Choices: []string{"Amazon", "Nile", "Yangtze", "Mississippi"}, CorrectAnswer: "Nile", Category: "Geography"},
	{ID: 111, Text: "How many strings does a standard violin have?", Choices: []string{"Three", "Four", "Five", "Six"}, CorrectAnswer: "Four", Category: "Music"},
	{ID: 112, Text: "Which country invented tea?", Choices: []string{"India", "Japan", "China", "England"}, CorrectAnswer: "China", Category: "Food & Drink"},
}

var specialistQuestions = map[string][]models.Question{
	"football": {
		{ID: 201, Text: "How many players are on the pitch per side in a football match?", Choices: []string{"9", "10", "11", "12"}, CorrectAnswer: "11", Category: "Football"},
		{ID: 202, Text: "Which country won the first FIFA World Cup in 1930?", Choices: []string{"Brazil", "Uruguay", "Argentina", "Italy"}, CorrectAnswer: "Uruguay", Category: "Football"},
		{ID: 203, Text: "How long is a standard football match?", Choices: []string{"80 minutes", "90 minutes", "100 minutes", "120 minutes"}, CorrectAnswer: "90 minutes", Category: "Football"},
		{ID: 204, Text: "What colour card sends a player off?", Choices: []string{"Yellow", "Red", "Blue", "Black"}, CorrectAnswer: "Red", Category: "Football"},
		{ID: 205, Text: "Which club has won the most European Cups?", Choices: []string{"AC Milan", "Bayern Munich", "Real Madrid", "Liverpool"}, CorrectAnswer: "Real Madrid", Category: "Football"},
		{ID: 206, Text: "From where is a penalty kick taken?", Choices: []string{"6 yards", "10 yards", "12 yards", "18 yards"}, CorrectAnswer: "12 yards", Category: "Football"},
	},
	"space": {
		{ID: 221, Text: "Which is the closest star to Earth?", Choices: []string{"Proxima Centauri", "The Sun", "Sirius", "Alpha Centauri A"}, CorrectAnswer: "The Sun", Category: "Space"},
		{ID: 222, Text: "Who was the first human in space?", Choices: []string{"Neil Armstrong", "Yuri Gagarin", "Buzz Aldrin", "John Glenn"}, CorrectAnswer: "Yuri Gagarin", Category: "Space"},
		{ID: 223, Text: "How many moons does Mars have?", Choices: []string{"None", "One", "Two", "Four"}, CorrectAnswer: "Two", Category: "Space"},
		{ID: 224, Text: "What is the largest planet in our solar system?", Choices: []string{"Saturn", "Neptune", "Jupiter", "Uranus"}, CorrectAnswer: "Jupiter", Category: "Space"},
		{ID: 225, Text: "In which year did Apollo 11 land on the Moon?", Choices: []string{"1967", "1969", "1971", "1973"}, CorrectAnswer: "1969", Category: "Space"},
		{ID: 226, Text: "What force keeps planets in orbit around the Sun?", Choices: []string{"Magnetism", "Friction", "Gravity", "Inertia"}, CorrectAnswer: "Gravity", Category: "Space"},
	},
	"movies": {
		{ID: 241, Text: "Who directed Jaws?", Choices: []string{"George Lucas", "Steven Spielberg", "Martin Scorsese", "Francis Ford Coppola"}, CorrectAnswer: "Steven Spielberg", Category: "Movies"},
		{ID: 242, Text: "Which film won the first Academy Award for Best Picture?", Choices: []string{"Wings", "Sunrise", "Metropolis", "The Jazz Singer"}, CorrectAnswer: "Wings", Category: "Movies"},
		{ID: 243, Text: "In The Matrix, which pill does Neo take?", Choices: []string{"Blue", "Red", "Green", "White"}, CorrectAnswer: "Red", Category: "Movies"},
		{ID: 244, Text: "Who played Jack in Titanic?", Choices: []string{"Brad Pitt", "Leonardo DiCaprio", "Matt Damon", "Johnny Depp"}, CorrectAnswer: "Leonardo DiCaprio", Category: "Movies"},
		{ID: 245, Text: "What is the highest-grossing film of all time (unadjusted)?", Choices: []string{"Titanic", "Avengers: Endgame", "Avatar", "Star Wars: The Force Awakens"}, CorrectAnswer: "Avatar", Category: "Movies"},
		{ID: 246, Text: "Which studio made Toy Story?", Choices: []string{"DreamWorks", "Pixar", "Blue Sky", "Illumination"}, CorrectAnswer: "Pixar", Category: "Movies"},
	},
}

var generalKnowledgeQuestions = []models.Question{
	{ID: 301, Text: "How many continents are there?", Choices: []string{"Five", "Six", "Seven", "Eight"}, CorrectAnswer: "Seven", Category: "General Knowledge"},
	{ID: 302, Text: "What is the chemical formula for water?", Choices: []string{"CO2", "H2O", "O2", "NaCl"}, CorrectAnswer: "H2O", Category: "General Knowledge"},
	{ID: 303, Text: "Which language has the most native speakers?", Choices: []string{"English", "Hindi", "Spanish", "Mandarin Chinese"}, CorrectAnswer: "Mandarin Chinese", Category: "General Knowledge"},
	{ID: 304, Text: "How many sides does a hexagon have?", Choices: []string{"Five", "Six", "Seven", "Eight"}, CorrectAnswer: "Six", Category: "General Knowledge"},
	{ID: 305, Text: "What is the currency of Japan?", Choices: []string{"Won", "Yuan", "Yen", "Ringgit"}, CorrectAnswer: "Yen", Category: "General Knowledge"},
	{ID: 306, Text: "Which ocean is the largest?", Choices: []string{"Atlantic", "Indian", "Arctic", "Pacific"}, CorrectAnswer: "Pacific", Category: "General Knowledge"},
	{ID: 307, Text: "Who wrote Romeo and Juliet?", Choices: []string{"Charles Dickens", "William Shakespeare", "Jane Austen", "Oscar Wilde"}, CorrectAnswer: "William Shakespeare", Category: "General Knowledge"},
	{ID: 308, Text: "What is the tallest mountain on Earth?", Choices: []string{"K2", "Kangchenjunga", "Mount Everest", "Lhotse"}, CorrectAnswer: "Mount Everest", Category: "General Knowledge"},
	{ID: 309, Text: "How many minutes are in a full day?", Choices: []string{"1240", "1440", "1640", "1840"}, CorrectAnswer: "1440", Category: "General Knowledge"},
	{ID: 310, Text: "Which instrument has 88 keys?", Choices: []string{"Organ", "Harpsichord", "Piano", "Accordion"}, CorrectAnswer: "Piano", Category: "General Knowledge"},
	{ID: 311, Text: "What gas do plants absorb from the atmosphere?", Choices: []string{"Oxygen", "Nitrogen", "Carbon Dioxide", "Hydrogen"}, CorrectAnswer: "Carbon Dioxide", Category: "General Knowledge"},
	{ID: 312, Text: "In which country are the pyramids of Giza?", Choices: []string{"Sudan", "Egypt", "Libya", "Jordan"}, CorrectAnswer: "Egypt", Category: "General Knowledge"},
}
