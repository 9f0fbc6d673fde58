package classifier

import (
	"strings"

	"DisasterTriage/internal/domain"
	"DisasterTriage/internal/textnorm"
)

// neutralKeywordConfidence is used when the predicted category has no keyword list.
const neutralKeywordConfidence = 0.5

// Keywords maps a category to the terms that count as evidence for it.
type Keywords map[domain.Category][]string

// DefaultKeywords returns a fresh copy of the built-in keyword table.
// "other" has no list on purpose.
func DefaultKeywords() Keywords {
	return Keywords{
		domain.CategoryFlood: {
			"enchente", "inundação", "alagamento", "água", "chuva", "rio",
			"córrego", "transbordou", "subiu", "nível", "represou", "açude",
			"barragem", "rompeu", "vazou", "molhado", "submergiu", "afogando",
		},
		domain.CategoryFire: {
			"incêndio", "fogo", "queimada", "chamas", "fumaça", "queimando",
			"ardendo", "combustão", "brasas", "cinzas", "carbonizado",
			"chamuscado", "arde", "pegou fogo", "bombeiros", "mangueira",
		},
		domain.CategoryLandslide: {
			"deslizamento", "desmoronamento", "desabamento", "terra", "morro",
			"encosta", "barranco", "escorregou", "rolou", "caiu", "soterrado",
			"escombros", "pedras", "lama", "erosão", "rachadura", "fenda",
		},
		domain.CategoryWindstorm: {
			"vendaval", "vento", "ventania", "rajada", "tempestade", "tornado",
			"ciclone", "furacão", "tufão", "derrubou", "arrancou", "voou",
			"destelhado", "quebrou", "estragou", "destruiu",
		},
		domain.CategoryHail: {
			"granizo", "pedra de gelo", "chuva de pedra", "gelo", "saraiva",
			"pedrisco", "bateu", "machucou", "quebrou vidro", "furou",
			"amassou", "danificou",
		},
		domain.CategoryDrought: {
			"seca", "estiagem", "falta de água", "sem água", "poço seco",
			"açude vazio", "rio seco", "nascente", "secou", "racionamento",
			"sede", "desidratação", "plantação", "gado", "morreu",
		},
		domain.CategoryEarthquake: {
			"terremoto", "tremor", "abalo sísmico", "tremeu", "balançou",
			"vibrou", "rachadura", "fissura", "prédio", "estrutura",
			"fundação", "escala richter",
		},
		domain.CategoryAccident: {
			"acidente", "colisão", "batida", "capotou", "atropelamento",
			"explosão", "vazamento", "derramamento", "químico", "tóxico",
			"gás", "combustível", "feridos", "vítimas", "ambulância",
		},
		domain.CategoryMedicalEmergency: {
			"emergência médica", "infarto", "avc", "convulsão", "overdose",
			"envenenamento", "alergia", "choque", "parada cardíaca",
			"respiratória", "samu", "uti", "hospital", "médico", "enfermeiro",
		},
	}
}

// Confidence is min(1, 2*hits/len(list)) over substring hits in the
// lowercased text, or 0.5 when the category has no list.
func (k Keywords) Confidence(text string, category domain.Category) float64 {
	terms := k[category]
	if len(terms) == 0 {
		return neutralKeywordConfidence
	}
	lower := textnorm.Lower(text)
	hits := 0
	for _, term := range terms {
		if strings.Contains(lower, textnorm.Lower(term)) {
			hits++
		}
	}
	return min(1, 2*float64(hits)/float64(len(terms)))
}
