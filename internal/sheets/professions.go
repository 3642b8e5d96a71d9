package sheets

import (
	"context"
	"sync"
	"time"

	"github.com/PoluyanbIch/stemnavigator/internal/service"
	"go.uber.org/zap"
)

const (
	columnDirection = "Направление"
	columnName      = "Название профессии"
)

type cachedProfessions struct {
	items   []service.Profession
	fetched time.Time
}

// Professions reads the professions spreadsheet, one worksheet per scale id.
// Results are cached per scale for ttl.
type Professions struct {
	client        *Client
	spreadsheetID string
	scales        []service.ScaleID
	ttl           time.Duration
	logger        *zap.Logger
	now           func() time.Time

	mu    sync.Mutex
	cache map[service.ScaleID]cachedProfessions
}

func NewProfessions(client *Client, spreadsheetID string, scales []service.Scale, ttl time.Duration, logger *zap.Logger) *Professions {
	ids := make([]service.ScaleID, 0, len(scales))
	for _, s := range scales {
		ids = append(ids, s.ID)
	}
	return &Professions{
		client:        client,
		spreadsheetID: spreadsheetID,
		scales:        ids,
		ttl:           ttl,
		logger:        logger,
		now:           time.Now,
		cache:         make(map[service.ScaleID]cachedProfessions),
	}
}

func (p *Professions) ByScale(ctx context.Context, scale service.ScaleID) ([]service.Profession, error) {
	if items, ok := p.cached(scale); ok {
		return items, nil
	}

	rows, err := p.client.get(ctx, p.spreadsheetID, sheetRange(string(scale), "A:Z"))
	if err != nil {
		return nil, err
	}
	items := professionsFromRows(scale, rows)

	p.mu.Lock()
	p.cache[scale] = cachedProfessions{items: items, fetched: p.now()}
	p.mu.Unlock()

	p.logger.Debug("professions loaded",
		zap.String("scale", string(scale)), zap.Int("count", len(items)))
	return items, nil
}

// All merges every scale worksheet. A worksheet that fails to load is logged
// and skipped; an error is returned only when nothing could be read.
func (p *Professions) All(ctx context.Context) ([]service.Profession, error) {
	var (
		all     []service.Profession
		lastErr error
		loaded  int
	)
	for _, scale := range p.scales {
		items, err := p.ByScale(ctx, scale)
		if err != nil {
			p.logger.Warn("failed to load professions sheet",
				zap.String("scale", string(scale)), zap.Error(err))
			lastErr = err
			continue
		}
		loaded++
		all = append(all, items...)
	}
	if loaded == 0 && lastErr != nil {
		return nil, lastErr
	}
	return all, nil
}

func (p *Professions) cached(scale service.ScaleID) ([]service.Profession, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.cache[scale]
	if !ok || p.now().Sub(c.fetched) >= p.ttl {
		return nil, false
	}
	return c.items, true
}

func professionsFromRows(scale service.ScaleID, rows [][]interface{}) []service.Profession {
	recs := records(rows)
	out := make([]service.Profession, 0, len(recs))
	for _, rec := range recs {
		name := rec[columnName]
		if name == "" {
			continue
		}
		prof := service.Profession{
			Scale:     scale,
			Direction: rec[columnDirection],
			Name:      name,
			Fields:    make(map[service.Field]string),
		}
		for header, value := range rec {
			if value == "" {
				continue
			}
			if f, ok := service.FieldByTitle(header); ok {
				prof.Fields[f] = value
			}
		}
		out = append(out, prof)
	}
	return out
}
