package browser

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/playwright-community/playwright-go"
)

// Cookie struct represents a browser cookie from an exported JSON file
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite"`
}

// LoadCookies reads one account's cookie export.
func LoadCookies(path string) ([]playwright.OptionalCookie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cookies []Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	pwCookies := make([]playwright.OptionalCookie, len(cookies))
	for i, c := range cookies {
		pwCookies[i] = c.ToPlaywright()
	}
	return pwCookies, nil
}

// LoadAccounts loads every *.json cookie export in dir, sorted by file name
// so account indexes are stable between runs. Unreadable files are skipped.
func LoadAccounts(dir string) ([][]playwright.OptionalCookie, []error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, []error{err}
	}
	sort.Strings(files)

	var accounts [][]playwright.OptionalCookie
	var errs []error
	for _, f := range files {
		cookies, err := LoadCookies(f)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		accounts = append(accounts, cookies)
	}
	return accounts, errs
}

func (c Cookie) ToPlaywright() playwright.OptionalCookie {
	pwCookie := playwright.OptionalCookie{
		Name:  c.Name,
		Value: c.Value,
	}
	if c.Domain != "" {
		pwCookie.Domain = playwright.String(c.Domain)
	}
	if c.Path != "" {
		pwCookie.Path = playwright.String(c.Path)
	}

	if c.Expires > 0 {
		pwCookie.Expires = playwright.Float(c.Expires)
	}

	if c.HTTPOnly {
		pwCookie.HttpOnly = playwright.Bool(true)
	}

	if c.Secure {
		pwCookie.Secure = playwright.Bool(true)
	}

	switch c.SameSite {
	case "Lax", "lax":
		pwCookie.SameSite = playwright.SameSiteAttributeLax
	case "Strict", "strict":
		pwCookie.SameSite = playwright.SameSiteAttributeStrict
	case "None", "no_restriction":
		pwCookie.SameSite = playwright.SameSiteAttributeNone
	}

	return pwCookie
}
