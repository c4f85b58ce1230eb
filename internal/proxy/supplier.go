package proxy

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"resty.dev/v3"
)

// ProxySupplier hands out proxies in round-robin order
type ProxySupplier interface {
	Get() string
	Len() int
}

type proxySupplier struct {
	proxies []string
	current int
	mutex   sync.Mutex
}

// LoadProxyFile reads one proxy URL per line, skipping blank lines and # comments.
func LoadProxyFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("proxy file %s: %w", path, err)
	}
	defer f.Close()

	proxies := make([]string, 0)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		proxies = append(proxies, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read proxy file %s: %w", path, err)
	}

	log.Infof("📄 Loaded %d proxies from %s", len(proxies), path)
	return proxies, nil
}

// NewProxySupplier creates a ProxySupplier. When testURL is set every proxy is
// checked against it first and the ones that fail are dropped.
func NewProxySupplier(ctx context.Context, proxies []string, testURL string) (ProxySupplier, error) {
	if len(proxies) == 0 {
		return &proxySupplier{proxies: []string{}, current: 0}, nil
	}

	validProxies := proxies
	if testURL != "" {
		validProxies = validateProxies(ctx, proxies, testURL)
	}

	if len(validProxies) == 0 {
		return nil, fmt.Errorf("none of the %d proxies is working", len(proxies))
	}

	return &proxySupplier{
		proxies: validProxies,
		current: rand.IntN(len(validProxies)),
	}, nil
}

func validateProxies(ctx context.Context, proxies []string, testURL string) []string {
	log.Infof("🔄 Testing %d proxies in parallel...", len(proxies))

	valid := make([]bool, len(proxies))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(50)

	for i, proxyURL := range proxies {
		g.Go(func() error {
			log.Debugf("🔄 Testing proxy %d/%d: %s", i+1, len(proxies), proxyURL)

			if isProxyValid(ctx, proxyURL, testURL) {
				valid[i] = true
				log.Infof("✅ Proxy %s is working", proxyURL)
			} else {
				log.Infof("❌ Proxy %s is not working, skipping", proxyURL)
			}
			return nil
		})
	}
	_ = g.Wait()

	validProxies := make([]string, 0, len(proxies))
	for i, ok := range valid {
		if ok {
			validProxies = append(validProxies, proxies[i])
		}
	}

	log.Infof("✅ ProxySupplier initialized with %d working proxies out of %d tested", len(validProxies), len(proxies))
	return validProxies
}

// Get returns the next proxy URL in round-robin fashion
func (p *proxySupplier) Get() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if len(p.proxies) == 0 {
		return "" // No proxies available
	}

	proxy := p.proxies[p.current]
	p.current = (p.current + 1) % len(p.proxies)

	return proxy
}

func (p *proxySupplier) Len() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return len(p.proxies)
}

// isProxyValid tests if a proxy can successfully make a request to the test URL
func isProxyValid(ctx context.Context, proxyURL, testURL string) bool {
	client := resty.New().
		SetTimeout(5 * time.Second). // Reduced timeout for faster testing
		SetRetryCount(0).            // No retries for faster testing
		SetProxy(proxyURL).
		SetTLSClientConfig(&tls.Config{
			InsecureSkipVerify: true,
		})

	resp, err := client.R().
		SetContext(ctx).
		Get(testURL)

	if err != nil {
		log.Infof("Proxy test failed for %s: %v", proxyURL, err)
		return false
	}

	if resp.IsError() {
		log.Infof("Proxy test failed for %s with status: %s", proxyURL, resp.Status())
		return false
	}

	return true
}
