// Package validation holds the anti-spam field validators shared by the
// public declaration and candidature forms. The functions are pure: they
// take raw form values and either return the normalized value or a
// user-facing message, so handlers compose exactly the checks each form
// needs without any storage dependency.
package validation

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var frenchCaser = language.French

// Errors collects field-level failures keyed by form field name.
type Errors map[string]string

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for field, msg := range e {
		parts = append(parts, field+": "+msg)
	}
	return strings.Join(parts, "; ")
}

// Add records a message for a field unless one is already present, so the
// first failed check per field wins (mirrors sequential form cleaning).
func (e Errors) Add(field, message string) {
	if _, exists := e[field]; !exists {
		e[field] = message
	}
}

// Placeholder names nobody real would submit.
var declarantsInterdits = []string{
	"inconnu", "unknown", "test", "exemple", "example",
	"admin", "administrateur", "user", "utilisateur",
}

// Placeholder addresses blocked verbatim.
var emailsInterdits = []string{
	"inconnu@exemple.com", "unknown@example.com", "test@test.com",
	"admin@admin.com", "user@user.com", "example@example.com",
	"test@example.com", "noreply@example.com",
}

// Disposable-mail providers and example domains, matched as substrings of
// the address.
var domainesJetables = []string{
	"tempmail.org", "10minutemail.com", "guerrillamail.com",
	"mailinator.com", "throwaway.email", "temp-mail.org",
	"maildrop.cc", "sharklasers.com", "yopmail.com",
	"example.com", "exemple.com", "test.com",
}

// Link and script fragments rejected in team names and remarks.
var fragmentsSuspects = []string{
	"http://", "https://", "www.", "<script", "javascript:",
}

// Extra fragments rejected in remarks only (frequent spam payloads).
var fragmentsRemarques = []string{
	"http://", "https://", "www.", ".com", ".org", ".net",
}

const (
	// MaxRemarquesDeclaration bounds the public declaration free text.
	MaxRemarquesDeclaration = 500
	// MaxRemarquesCandidature bounds candidature and tournoi free text.
	MaxRemarquesCandidature = 1000
)

// Honeypot rejects any submission where the hidden trap field was filled.
func Honeypot(value string) error {
	if value != "" {
		return Errors{"website": "Requête invalide détectée"}
	}
	return nil
}

// Declarant validates and normalizes the submitter's full name.
// On success the name is returned in title case.
func Declarant(value string) (string, string) {
	trimmed := strings.TrimSpace(value)
	lower := strings.ToLower(trimmed)

	for _, interdit := range declarantsInterdits {
		if lower == interdit {
			return "", "Veuillez saisir votre vrai nom (les valeurs d'exemple ne sont pas autorisées)"
		}
	}
	if len(strings.Fields(trimmed)) < 2 {
		return "", "Veuillez saisir votre prénom et nom complets"
	}
	if isAllDigits(strings.ReplaceAll(trimmed, " ", "")) {
		return "", "Le nom ne peut pas être uniquement des chiffres"
	}
	if utf8.RuneCountInString(trimmed) < 5 {
		return "", "Le nom semble trop court"
	}
	if hasRepeatedRun(trimmed, 5) {
		return "", "Format de nom invalide"
	}
	return cases.Title(frenchCaser).String(trimmed), ""
}

// Email validates and lowercases a contact address.
func Email(value string) (string, string) {
	email := strings.ToLower(strings.TrimSpace(value))

	for _, interdit := range emailsInterdits {
		if email == interdit {
			return "", "Veuillez saisir l'adresse email réelle de votre club"
		}
	}
	for _, domaine := range domainesJetables {
		if strings.Contains(email, domaine) {
			return "", "Les adresses email temporaires ou d'exemple ne sont pas autorisées"
		}
	}
	if strings.Count(email, "@") != 1 {
		return "", "Format d'email invalide"
	}
	domaine := email[strings.Index(email, "@")+1:]
	if !strings.Contains(domaine, ".") {
		return "", "Le domaine de l'email semble invalide"
	}
	return email, ""
}

// NombreEquipes validates the declared team count.
func NombreEquipes(value int) string {
	if value <= 0 {
		return "Le nombre d'équipes doit être supérieur à 0"
	}
	if value > 10 {
		return "Maximum 10 équipes par déclaration"
	}
	return ""
}

// NomsEquipes validates the list of team names against the declared count:
// one name per slot, 2-100 characters, no link-like fragments, pairwise
// case-insensitive distinct. Names are returned trimmed.
func NomsEquipes(noms []string, nombreEquipes int) ([]string, string) {
	if len(noms) != nombreEquipes {
		return nil, "Veuillez saisir un nom pour chaque équipe déclarée"
	}

	nettoyes := make([]string, 0, len(noms))
	vus := make(map[string]bool, len(noms))
	for _, nom := range noms {
		nom = strings.TrimSpace(nom)
		if n := utf8.RuneCountInString(nom); n < 2 || n > 100 {
			return nil, "Chaque nom d'équipe doit contenir entre 2 et 100 caractères"
		}
		lower := strings.ToLower(nom)
		for _, fragment := range fragmentsSuspects {
			if strings.Contains(lower, fragment) {
				return nil, "Les liens ne sont pas autorisés dans les noms d'équipes"
			}
		}
		if vus[lower] {
			return nil, "Deux équipes ne peuvent pas porter le même nom"
		}
		vus[lower] = true
		nettoyes = append(nettoyes, nom)
	}
	return nettoyes, ""
}

// PoulesEquipes validates the per-team pool assignments: parallel to the
// team names by position, each either empty or a known pool label. A short
// slice is padded with empty assignments.
func PoulesEquipes(poules []string, nombreEquipes int) ([]string, string) {
	if len(poules) > nombreEquipes {
		return nil, "Assignations de poules incohérentes avec le nombre d'équipes"
	}
	nettoyees := make([]string, nombreEquipes)
	for i, poule := range poules {
		poule = strings.TrimSpace(strings.ToUpper(poule))
		if poule == "" {
			continue
		}
		switch poule {
		case "HAUTE", "BASSE", "UNIQUE":
			nettoyees[i] = poule
		default:
			return nil, "Poule inconnue : " + poule
		}
	}
	return nettoyees, ""
}

// Remarques validates optional free text: bounded length, no link-like
// fragments. The value is returned trimmed.
func Remarques(value string, maxLen int) (string, string) {
	lower := strings.ToLower(value)
	for _, fragment := range fragmentsRemarques {
		if strings.Contains(lower, fragment) {
			return "", "Les liens ne sont pas autorisés dans les remarques"
		}
	}
	if utf8.RuneCountInString(value) > maxLen {
		return "", "Les remarques ne peuvent pas dépasser " + strconv.Itoa(maxLen) + " caractères"
	}
	return strings.TrimSpace(value), ""
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// hasRepeatedRun reports whether any lowercase letter repeats n or more
// times consecutively (keyboard-mash detection).
func hasRepeatedRun(s string, n int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r >= 'a' && r <= 'z' && r == prev {
			run++
			if run >= n {
				return true
			}
		} else {
			run = 1
		}
		prev = r
	}
	return false
}
