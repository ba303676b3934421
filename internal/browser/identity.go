package browser

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/playwright-community/playwright-go"
)

// Proxy is one entry of the proxies file.
type Proxy struct {
	Server   string `json:"server"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

func (p Proxy) toPlaywright() *playwright.Proxy {
	pp := &playwright.Proxy{Server: p.Server}
	if p.Username != "" {
		pp.Username = playwright.String(p.Username)
	}
	if p.Password != "" {
		pp.Password = playwright.String(p.Password)
	}
	return pp
}

// Identity is what makes one session look like a distinct visitor.
type Identity struct {
	Proxy       *Proxy
	Fingerprint string
	Cookies     []playwright.OptionalCookie
}

// Identities holds the proxy, fingerprint and account pools. They are
// loaded once per run and indexed round-robin by session number.
type Identities struct {
	Proxies      []Proxy
	Fingerprints []string
	Accounts     [][]playwright.OptionalCookie
}

// For returns the identity of session index. Empty pools contribute nothing.
func (ids *Identities) For(index int) Identity {
	var id Identity
	if n := len(ids.Proxies); n > 0 {
		p := ids.Proxies[index%n]
		id.Proxy = &p
	}
	if n := len(ids.Fingerprints); n > 0 {
		id.Fingerprint = ids.Fingerprints[index%n]
	}
	if n := len(ids.Accounts); n > 0 {
		id.Cookies = ids.Accounts[index%n]
	}
	return id
}

// RandomAccount is the fallback when the indexed account is rejected.
func (ids *Identities) RandomAccount() []playwright.OptionalCookie {
	if len(ids.Accounts) == 0 {
		return nil
	}
	return ids.Accounts[rand.Intn(len(ids.Accounts))]
}

// LoadIdentities reads the three pools. A missing source leaves its pool
// empty and is logged; sessions then run without that piece.
func LoadIdentities(proxiesPath, fingerprintsDir, accountsDir string, logger *log.Logger) *Identities {
	ids := &Identities{}

	proxies, err := LoadProxies(proxiesPath)
	if err != nil {
		logger.Warn("⚠️ No proxies loaded, sessions connect directly", "err", err)
	}
	ids.Proxies = proxies

	fingerprints, err := LoadFingerprints(fingerprintsDir)
	if err != nil {
		logger.Warn("⚠️ No fingerprint scripts loaded", "err", err)
	}
	ids.Fingerprints = fingerprints

	accounts, errs := LoadAccounts(accountsDir)
	for _, e := range errs {
		logger.Warn("⚠️ Could not load account cookies", "err", e)
	}
	ids.Accounts = accounts

	logger.Info("🍪 Identities loaded", "proxies", len(ids.Proxies), "fingerprints", len(ids.Fingerprints), "accounts", len(ids.Accounts))
	return ids
}

func LoadProxies(path string) ([]Proxy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var proxies []Proxy
	if err := json.Unmarshal(data, &proxies); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	valid := proxies[:0]
	for _, p := range proxies {
		if p.Server != "" {
			valid = append(valid, p)
		}
	}
	return valid, nil
}

// LoadFingerprints reads every *.js init script in dir, sorted by name.
func LoadFingerprints(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.js"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no *.js files in %s", dir)
	}
	sort.Strings(files)

	scripts := make([]string, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return scripts, fmt.Errorf("read %s: %w", f, err)
		}
		scripts = append(scripts, string(data))
	}
	return scripts, nil
}
