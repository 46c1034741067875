package httpclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/net/proxy"
	"golang.org/x/net/publicsuffix"

	"cartelera-bot/internal/config"
)

const (
	DefaultUserAgent = "Mozilla/5.0"
	DefaultTimeout   = 10 * time.Second
)

// defaultHeaders 模拟浏览器请求头
var defaultHeaders = map[string]string{
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "es-ES,es;q=0.9,en;q=0.6",
}

// Client is a proxy-aware HTTP client. Requests are attempted once; callers decide
// what a failure means.
type Client struct {
	httpClient *http.Client
	config     *config.ProxyConfig
	userAgent  string
	timeout    time.Duration
}

// NewClient creates a new HTTP client with configuration
func NewClient(cfg *config.ProxyConfig) *Client {
	if cfg == nil {
		cfg = &config.ProxyConfig{}
	}

	client := &Client{
		config:    cfg,
		userAgent: DefaultUserAgent,
		timeout:   cfg.FetchTimeout(),
	}
	if cfg.UserAgent != "" {
		client.userAgent = cfg.UserAgent
	}

	client.httpClient = client.buildHTTPClient()
	return client
}

// buildHTTPClient builds HTTP client with proxy and TLS configuration
func (c *Client) buildHTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   c.timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   c.timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if c.config.CACertFile != "" {
		if pool, err := loadCertPool(c.config.CACertFile); err == nil {
			tlsConfig.RootCAs = pool
		}
	}
	transport.TLSClientConfig = tlsConfig

	if c.config.Switch && c.config.Proxy != "" {
		switch strings.ToLower(c.config.Type) {
		case "socks5", "socks5h":
			address := strings.TrimPrefix(strings.TrimPrefix(c.config.Proxy, "socks5h://"), "socks5://")
			if dialer, err := proxy.SOCKS5("tcp", address, nil, proxy.Direct); err == nil {
				if ctxDialer, ok := dialer.(proxy.ContextDialer); ok {
					transport.DialContext = ctxDialer.DialContext
				} else {
					transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
						return dialer.Dial(network, addr)
					}
				}
			}
		default:
			if proxyURL, err := c.parseProxy(); err == nil {
				transport.Proxy = http.ProxyURL(proxyURL)
			}
		}
	}

	// 会话 cookie 按可注册域名隔离
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})

	return &http.Client{
		Timeout:   c.timeout,
		Transport: transport,
		Jar:       jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("stopped after 10 redirects")
			}
			if len(via) > 0 {
				if ua := via[0].Header.Get("User-Agent"); ua != "" {
					req.Header.Set("User-Agent", ua)
				}
			}
			return nil
		},
	}
}

func loadCertPool(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %s", path)
	}
	return pool, nil
}

// parseProxy parses proxy configuration
func (c *Client) parseProxy() (*url.URL, error) {
	proxyStr := c.config.Proxy
	if !strings.Contains(proxyStr, "://") {
		proxyStr = c.config.Type + "://" + proxyStr
	}
	return url.Parse(proxyStr)
}

// Get performs a single HTTP GET request
func (c *Client) Get(ctx context.Context, rawURL string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.userAgent)
	for key, value := range defaultHeaders {
		req.Header.Set(key, value)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	return resp, nil
}

// GetBytes gets response body as bytes
func (c *Client) GetBytes(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	resp, err := c.Get(ctx, rawURL, headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	return io.ReadAll(resp.Body)
}

// HTTPClient exposes the underlying client, e.g. for the Telegram API.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// Close closes idle connections
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
