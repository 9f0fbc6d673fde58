package classifier

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"DisasterTriage/internal/domain"
)

// CorpusKind tells reported metrics apart: bootstrap accuracy says nothing
// about real-world accuracy.
type CorpusKind string

const (
	CorpusSupplied  CorpusKind = "supplied-corpus"
	CorpusBootstrap CorpusKind = "bootstrap-corpus"
)

// Corpus is a labeled training set.
type Corpus struct {
	Texts  []string
	Labels []domain.Category
	Kind   CorpusKind
}

// Len returns the sample count.
func (c *Corpus) Len() int { return len(c.Texts) }

// Validate checks the corpus shape.
func (c *Corpus) Validate() error {
	if len(c.Texts) == 0 {
		return fmt.Errorf("%w: corpus is empty", ErrCorpusMismatch)
	}
	if len(c.Texts) != len(c.Labels) {
		return fmt.Errorf("%w: %d texts, %d labels", ErrCorpusMismatch, len(c.Texts), len(c.Labels))
	}
	return nil
}

type corpusEntry struct {
	Text  string `yaml:"text"`
	Label string `yaml:"label"`
}

// LoadCorpus reads a supplied corpus: a YAML list of {text, label} entries.
func LoadCorpus(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", path, err)
	}
	var entries []corpusEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode corpus %s: %w", path, err)
	}
	corpus := &Corpus{Kind: CorpusSupplied}
	for i, e := range entries {
		label, err := domain.ParseCategory(e.Label)
		if err != nil {
			return nil, fmt.Errorf("corpus entry %d: %w", i, err)
		}
		corpus.Texts = append(corpus.Texts, e.Text)
		corpus.Labels = append(corpus.Labels, label)
	}
	if err := corpus.Validate(); err != nil {
		return nil, err
	}
	return corpus, nil
}

const locationSlot = "{local}"

var bootstrapLocations = []string{
	"centro da cidade", "bairro jardim", "vila esperança", "rua principal",
	"avenida central", "distrito industrial", "zona rural", "periferia",
}

var bootstrapTemplates = map[domain.Category][]string{
	domain.CategoryFlood: {
		"Socorro! A água está subindo muito rápido aqui na {local}",
		"Enchente na região de {local}, várias casas alagadas",
		"Rio transbordou e está inundando tudo por aqui",
		"Chuva forte causou alagamento na {local}",
		"Estamos ilhados pela enchente, precisamos de ajuda",
	},
	domain.CategoryFire: {
		"Incêndio de grandes proporções na {local}",
		"Fogo se espalhando rapidamente, muito fumaça",
		"Casa pegando fogo na {local}, bombeiros necessários",
		"Queimada descontrolada ameaça residências",
		"Chamas altas, situação crítica de incêndio",
	},
	domain.CategoryLandslide: {
		"Deslizamento de terra na encosta do {local}",
		"Morro desmoronou e soterrou casas",
		"Terra escorregou e bloqueou a estrada",
		"Pessoas soterradas no deslizamento",
		"Barranco caiu sobre as casas",
	},
	domain.CategoryWindstorm: {
		"Vendaval muito forte derrubou árvores",
		"Vento arrancou telhados na {local}",
		"Tempestade com rajadas destruindo tudo",
		"Ventania derrubou postes de energia",
		"Tornado passou pela região",
	},
	domain.CategoryHail: {
		"Chuva de granizo está destruindo carros",
		"Pedras de gelo grandes machucando pessoas",
		"Granizo quebrou vidros das casas",
		"Saraiva danificou plantações",
		"Chuva de pedra furou telhados",
	},
	domain.CategoryDrought: {
		"Seca severa na {local}, poços secaram",
		"Estiagem prolongada, falta de água há semanas",
		"Rio seco e gado morrendo de sede",
		"Racionamento de água na {local} por causa da seca",
		"Açude vazio, plantação perdida pela estiagem",
	},
	domain.CategoryEarthquake: {
		"Tremor de terra sentido na {local}",
		"Terremoto fez o prédio balançar",
		"Abalo sísmico causou rachaduras nas casas",
		"Chão tremeu e paredes racharam na {local}",
		"Prédio com fissuras depois do tremor",
	},
	domain.CategoryAccident: {
		"Acidente grave na {local} com vítimas",
		"Colisão entre veículos, feridos presos",
		"Explosão em posto de combustível",
		"Vazamento de gás tóxico",
		"Atropelamento com vítima grave",
	},
	domain.CategoryMedicalEmergency: {
		"Pessoa passou mal, precisa de SAMU",
		"Infarto, situação crítica médica",
		"Criança com convulsão, urgente",
		"Idoso com AVC, precisa hospital",
		"Overdose, pessoa inconsciente",
	},
}

var bootstrapOther = []string{
	"Situação estranha acontecendo aqui",
	"Problema não identificado na região",
	"Algo diferente está acontecendo",
	"Situação anômala precisa investigação",
	"Evento não classificado ocorrendo",
}

// Bootstrap synthesizes a fallback corpus: every category template crossed
// with every location (templates without a location slot repeat once per
// location), one slot-free variant of each slotted template, and a small
// "other" bucket. It is a fallback, not ground truth.
func Bootstrap() *Corpus {
	corpus := &Corpus{Kind: CorpusBootstrap}
	add := func(text string, label domain.Category) {
		corpus.Texts = append(corpus.Texts, text)
		corpus.Labels = append(corpus.Labels, label)
	}

	for _, category := range domain.Categories() {
		templates, ok := bootstrapTemplates[category]
		if !ok {
			continue
		}
		for _, template := range templates {
			for _, location := range bootstrapLocations {
				add(strings.ReplaceAll(template, locationSlot, location), category)
			}
			if strings.Contains(template, locationSlot) {
				add(withoutLocation(template), category)
			}
		}
	}
	for _, text := range bootstrapOther {
		add(text, domain.CategoryOther)
	}
	return corpus
}

func withoutLocation(template string) string {
	for _, prep := range []string{" na ", " do ", " de "} {
		template = strings.ReplaceAll(template, prep+locationSlot, "")
	}
	return strings.ReplaceAll(template, locationSlot, "")
}
