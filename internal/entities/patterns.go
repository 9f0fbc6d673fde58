package entities

import "regexp"

var (
	postalCodeExpr  = regexp.MustCompile(`\b\d{5}-?\d{3}\b`)
	coordinatesExpr = regexp.MustCompile(`-?\d{1,2}\.\d+,\s*-?\d{1,2}\.\d+`)
	addressExpr     = regexp.MustCompile(`(?i)\b(?:rua|av|avenida|travessa|alameda|praça|largo)\s+[^,\n]+(?:,\s*)?(?:n[°º]?\s*)?(\d+)`)
	clockTimeExpr   = regexp.MustCompile(`\b(?:[01]?[0-9]|2[0-3]):[0-5][0-9](?::[0-5][0-9])?\b`)
	dateExpr        = regexp.MustCompile(`\b(?:\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4}|\d{2,4}[/\-.]\d{1,2}[/\-.]\d{1,2})\b`)
)

// Default keyword tables. Lists are lowercase; matching is whole-word and
// case-insensitive.
var (
	DefaultVulnerablePeople = []string{
		"criança", "crianças", "bebê", "bebês", "idoso", "idosos", "idosa", "idosas",
		"gestante", "grávida", "deficiente", "cadeirante", "doente", "ferido", "ferida",
	}
	DefaultRiskLocations = []string{
		"ponte", "viaduto", "túnel", "encosta", "morro", "barranco", "córrego",
		"rio", "represa", "açude", "escola", "hospital", "creche", "asilo",
	}
	DefaultCriticalStates = []string{
		"preso", "presa", "ilhado", "ilhada", "soterrado", "soterrada",
		"desaparecido", "desaparecida", "perdido", "perdida", "ferido", "ferida",
	}
	DefaultCities = []string{
		"são paulo", "rio de janeiro", "belo horizonte", "salvador", "brasília",
		"fortaleza", "manaus", "curitiba", "recife", "porto alegre", "goiânia",
		"belém", "guarulhos", "campinas", "são luís", "maceió", "natal",
		"teresina", "campo grande", "joão pessoa", "jaboatão dos guararapes",
		"osasco", "santo andré", "são bernardo do campo", "contagem", "uberlândia",
	}
)
