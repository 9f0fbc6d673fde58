package sources

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"DisasterTriage/internal/collector"
	"DisasterTriage/internal/domain"
)

const (
	defaultSimulatedCount = 50
	simulatedWindow       = 48 * time.Hour
)

var (
	simulatedDisasters = []string{
		"Enchente", "Deslizamento", "Terremoto", "Incêndio",
		"Seca", "Tempestade", "Vendaval", "Granizo",
	}

	simulatedPlaces = []string{
		"São Paulo, SP", "Rio de Janeiro, RJ", "Belo Horizonte, MG",
		"Salvador, BA", "Recife, PE", "Fortaleza, CE", "Manaus, AM",
		"Porto Alegre, RS", "Curitiba, PR", "Brasília, DF",
		"Petrópolis, RJ", "Blumenau, SC", "São Sebastião, SP",
		"Angra dos Reis, RJ", "Campos do Jordão, SP",
	}

	simulatedTemplates = []string{
		"Urgente! {tipo} atingindo a região de {local}. Moradores precisam de ajuda!",
		"Alerta de {tipo} em {local}. Autoridades pedem para população evacuar a área.",
		"Situação crítica em {local} devido a {tipo}. Várias famílias desabrigadas.",
		"Precisamos de ajuda em {local}! {tipo} destruiu várias casas na região.",
		"Atenção para quem está em {local}, {tipo} previsto para as próximas horas.",
		"Estamos organizando doações para vítimas do {tipo} em {local}. Ajude!",
		"{tipo} em {local} causa destruição. Bombeiros trabalham nos resgates.",
		"Defesa Civil alerta para risco de {tipo} em {local}. Fiquem atentos!",
		"Voluntários necessários para ajudar vítimas de {tipo} em {local}.",
		"Estradas bloqueadas devido a {tipo} na região de {local}. Evitem a área.",
	}

	simulatedAuthors = []string{
		"DefesaCivilSP", "AlertaRio", "BombeirosMG", "SOSDesastres",
		"MonitorClima", "EmergenciaBR", "AlertaBrasil", "SOSEnchentes",
		"NoticiasDesastres", "VoluntariosEmergencia",
	}
)

// SimulatedCollector fabricates plausible reports for demos and for running
// without upstream credentials. A non-zero seed makes the sequence
// reproducible across runs.
type SimulatedCollector struct {
	mu   sync.Mutex
	src  *rand.ChaCha8
	rng  *rand.Rand
	now  func() time.Time
	seed uint64
}

var _ collector.Collector = (*SimulatedCollector)(nil)

// NewSimulatedCollector seeds the generator; seed 0 picks a time-based seed.
func NewSimulatedCollector(seed uint64) *SimulatedCollector {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	src := rand.NewChaCha8(key)
	return &SimulatedCollector{src: src, rng: rand.New(src), now: time.Now, seed: seed}
}

// Name identifies the strategy inside the registry.
func (s *SimulatedCollector) Name() string {
	return "simulated"
}

// Collect generates the "count" option worth of messages (default 50),
// newest first, created within the last 48 hours.
func (s *SimulatedCollector) Collect(ctx context.Context, req collector.Request) ([]domain.RawMessage, error) {
	count := defaultSimulatedCount
	if raw, ok := req.Options["count"]; ok && raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("site %s: invalid count %q", req.SiteName, raw)
		}
		count = n
	}
	return s.Generate(ctx, count)
}

// Generate produces n simulated messages.
func (s *SimulatedCollector) Generate(ctx context.Context, n int) ([]domain.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	out := make([]domain.RawMessage, 0, n)
	for range n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id, err := uuid.NewRandomFromReader(s.src)
		if err != nil {
			return nil, fmt.Errorf("generate id: %w", err)
		}
		offset := time.Duration(s.rng.Int64N(int64(simulatedWindow/time.Minute)+1)) * time.Minute
		out = append(out, domain.RawMessage{
			ID:        id.String(),
			Text:      s.text(),
			CreatedAt: now.Add(-offset),
			Source:    domain.SourceSimulated,
			Author:    simulatedAuthors[s.rng.IntN(len(simulatedAuthors))],
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *SimulatedCollector) text() string {
	tmpl := simulatedTemplates[s.rng.IntN(len(simulatedTemplates))]
	kind := simulatedDisasters[s.rng.IntN(len(simulatedDisasters))]
	place := simulatedPlaces[s.rng.IntN(len(simulatedPlaces))]
	if strings.HasPrefix(tmpl, "{tipo}") {
		return strings.NewReplacer("{tipo}", kind, "{local}", place).Replace(tmpl)
	}
	return strings.NewReplacer("{tipo}", strings.ToLower(kind), "{local}", place).Replace(tmpl)
}
