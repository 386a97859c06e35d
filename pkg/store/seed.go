package store

// defaultCatalog is the catalog loaded into a seeded memory store at startup.
var defaultCatalog = []struct {
	isbn   string
	author string
	title  string
}{
	{"1", "Chinua Achebe", "Things Fall Apart"},
	{"2", "Hans Christian Andersen", "Fairy tales"},
	{"3", "Dante Alighieri", "The Divine Comedy"},
	{"4", "Unknown", "The Epic Of Gilgamesh"},
	{"5", "Unknown", "The Book Of Job"},
	{"6", "Unknown", "One Thousand and One Nights"},
	{"7", "Unknown", "Njál's Saga"},
	{"8", "Jane Austen", "Pride and Prejudice"},
	{"9", "Honoré de Balzac", "Le Père Goriot"},
	{"10", "Samuel Beckett", "Molloy, Malone Dies, The Unnamable, the trilogy"},
}
