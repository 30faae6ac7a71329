package offline

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/alejandrodnm/profitcalc/internal/domain"
)

// defaultWorkers limita los fetches concurrentes si Config.Workers es 0.
const defaultWorkers = 4

type fetched struct {
	key  string
	resp domain.CachedResponse
}

// fetchAll descarga todos los assets del manifest con un worker pool chico.
// Los resultados respetan el orden del manifest. El primer fallo cancela el resto,
// y un ctx cancelado a mitad de camino también es un fallo.
func (m *Manager) fetchAll(ctx context.Context, assets []string) ([]fetched, error) {
	workers := m.cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	if workers > len(assets) {
		workers = len(assets)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]fetched, len(assets))
	workCh := make(chan int, len(assets))
	for i := range assets {
		workCh <- i
	}
	close(workCh)

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range workCh {
				if err := ctx.Err(); err != nil {
					fail(fmt.Errorf("%w: %w", domain.ErrInstallFailure, err))
					return
				}
				f, err := m.fetchAsset(ctx, assets[idx])
				if err != nil {
					fail(err)
					return
				}
				results[idx] = f
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInstallFailure, err)
	}
	return results, nil
}

func (m *Manager) fetchAsset(ctx context.Context, asset string) (fetched, error) {
	target, err := m.policy.resolvePath(asset)
	if err != nil {
		return fetched{}, fmt.Errorf("%w: asset %q: %w", domain.ErrInstallFailure, asset, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return fetched{}, fmt.Errorf("%w: asset %q: %w", domain.ErrInstallFailure, asset, err)
	}
	resp, err := m.fetcher.Fetch(ctx, req)
	if err != nil {
		return fetched{}, fmt.Errorf("%w: fetch %s: %w", domain.ErrInstallFailure, target, err)
	}
	if !resp.OK() {
		return fetched{}, fmt.Errorf("%w: fetch %s: status %d", domain.ErrInstallFailure, target, resp.Status)
	}
	return fetched{key: target.String(), resp: resp}, nil
}
