package clients

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"time"

	"mentoring-svc/src/internal/config"
	"mentoring-svc/src/internal/models"

	"github.com/sirupsen/logrus"
)

const maxPageBytes = 1 << 20

// Identity is who the external provider says the user is.
type Identity struct {
	LastName   string
	FirstName  string
	MiddleName string
}

// IdentityClient logs in to the school's student portal with the user's
// credentials and reads their name off the landing page.
type IdentityClient struct {
	loginURL      string
	portalURL     string
	usernameField string
	passwordField string
	pattern       *regexp.Regexp
	timeout       time.Duration
}

func NewIdentityClient(cfg *config.IdentityProvider) (*IdentityClient, error) {
	pattern, err := regexp.Compile(cfg.NamePattern)
	if err != nil {
		return nil, fmt.Errorf("invalid identity name pattern: %w", err)
	}
	for _, group := range []string{"last", "first"} {
		if pattern.SubexpIndex(group) < 0 {
			return nil, fmt.Errorf("identity name pattern lacks the %q group", group)
		}
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &IdentityClient{
		loginURL:      cfg.Url,
		portalURL:     cfg.PortalUrl,
		usernameField: cfg.UsernameForm,
		passwordField: cfg.PasswordForm,
		pattern:       pattern,
		timeout:       timeout,
	}, nil
}

// Authenticate returns models.ErrAuthentication when the provider does not
// show a recognisable name page, and wraps models.ErrIdentityProvider when
// the provider cannot be reached.
func (c *IdentityClient) Authenticate(ctx context.Context, username, password string) (*Identity, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	// A fresh jar per login keeps portal sessions of different users apart.
	httpClient := &http.Client{Timeout: c.timeout, Jar: jar}

	form := url.Values{}
	form.Set(c.usernameField, username)
	form.Set(c.passwordField, password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.fetch(httpClient, req)
	if err != nil {
		return nil, err
	}

	if c.portalURL != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.portalURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		if body, err = c.fetch(httpClient, req); err != nil {
			return nil, err
		}
	}

	identity, ok := c.parse(body)
	if !ok {
		logrus.WithField("username", username).Info("Identity provider rejected login")
		return nil, models.ErrAuthentication
	}
	return identity, nil
}

func (c *IdentityClient) fetch(httpClient *http.Client, req *http.Request) (string, error) {
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrIdentityProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", models.ErrAuthentication
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", models.ErrIdentityProvider, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrIdentityProvider, err)
	}
	return string(data), nil
}

func (c *IdentityClient) parse(page string) (*Identity, bool) {
	m := c.pattern.FindStringSubmatch(page)
	if m == nil {
		return nil, false
	}

	group := func(name string) string {
		if i := c.pattern.SubexpIndex(name); i >= 0 && i < len(m) {
			return strings.TrimSpace(html.UnescapeString(m[i]))
		}
		return ""
	}

	identity := &Identity{
		LastName:   group("last"),
		FirstName:  group("first"),
		MiddleName: group("middle"),
	}
	if identity.LastName == "" || identity.FirstName == "" {
		return nil, false
	}
	return identity, true
}
