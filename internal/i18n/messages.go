package i18n

var czech = map[string]string{
	// navigation
	"Books":           "Knihy",
	"Readers":         "Čtenáři",
	"Search":          "Hledání",
	"Delays":          "Zpoždění",
	"Dashboard":       "Přehled",
	"Recent searches": "Nedávná hledání",
	"Borrowings":      "Výpůjčky",
	"Clear":           "Vymazat",
	"Clear all":       "Vymazat vše",
	"Back":            "Zpět",

	// list states
	"Start typing to search":       "Začněte psát pro vyhledávání",
	"Loading…":                     "Načítání…",
	"No results":                   "Žádné výsledky",
	"No books found":               "Nebyly nalezeny žádné knihy",
	"No readers found":             "Nebyli nalezeni žádní čtenáři",
	"No overdue borrowings":        "Žádné výpůjčky po termínu",
	"No recent searches":           "Žádná nedávná hledání",
	"Page %d of %d":                "Strana %d z %d",
	"%d results":                   "Výsledků: %d",
	"%s (%d results)":              "%s (výsledků: %d)",
	"Type a query or /clear":       "Napište dotaz nebo /clear",
	"Filter by reader or title…":   "Filtrovat podle čtenáře nebo názvu…",
	"Send the book details":        "Pošlete údaje o knize",
	"Title;Author;YYYY-MM-DD":      "Název;Autor;RRRR-MM-DD",
	"Send: book id;due date":       "Pošlete: id knihy;datum vrácení",
	"Send the new due date":        "Pošlete nové datum vrácení",
	"Send: email password":         "Pošlete: e-mail heslo",
	"Send: first;last;email;phone": "Pošlete: jméno;příjmení;e-mail;telefon",

	// dashboard
	"Books: %d":                   "Knihy: %d",
	"Readers: %d":                 "Čtenáři: %d",
	"Most overdue":                "Nejvíce po termínu",
	"Borrowings per month":        "Výpůjčky za měsíc",
	"New readers per month":       "Noví čtenáři za měsíc",
	"unavailable":                 "nedostupné",
	"%d days overdue":             "%d dní po termínu",
	"Due %s":                      "Vrátit do %s",
	"Returned %s":                 "Vráceno %s",
	"Borrowed %s":                 "Vypůjčeno %s",
	"Published %s":                "Vydáno %s",
	"Prolonged %d times":          "Prodlouženo %dx",
	"Return":                      "Vrátit",
	"Prolong":                     "Prodloužit",
	"Add borrowing":               "Přidat výpůjčku",
	"Edit":                        "Upravit",

	// notices
	"%s succeeded":                                     "%s: hotovo",
	"%s failed: %v":                                    "%s selhalo: %v",
	"Your session has expired, please sign in again":   "Vaše relace vypršela, přihlaste se prosím znovu",
	"Please sign in with /login":                       "Přihlaste se prosím příkazem /login",
	"Signed in":                                        "Přihlášeno",
	"Signed out":                                       "Odhlášeno",
	"Invalid input: %v":                                "Neplatný vstup: %v",
	"Another operation is still running":               "Jiná operace stále probíhá",
	"Language updated":                                 "Jazyk byl změněn",
	"Dark mode on":                                     "Tmavý režim zapnut",
	"Dark mode off":                                    "Tmavý režim vypnut",
	"Unknown command":                                  "Neznámý příkaz",
	"You are not authorized to use this bot.":          "Nemáte oprávnění používat tohoto bota.",
	"Welcome to the library administration.":           "Vítejte ve správě knihovny.",
	"Not found":                                        "Nenalezeno",
	"Send a numeric id, for example /reader 42":        "Pošlete číselné id, například /reader 42",
	"Language":                                         "Jazyk",

	// borrowing filters
	"All":           "Vše",
	"Borrowed":      "Vypůjčené",
	"Returned":      "Vrácené",
	"Overdue":       "Po termínu",
	"No borrowings": "Žádné výpůjčky",
}
