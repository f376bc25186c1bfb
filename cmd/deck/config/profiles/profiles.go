package profiles

import (
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/opst/pipedeck/pkg/rest"
	"github.com/opst/pipedeck/pkg/utils/open"
	yaml "gopkg.in/yaml.v3"
)

var ErrProfileStoreNotFound = errors.New("profile store is not found")
var ErrProfileInvalid = errors.New("deck profile is invalid")
var ErrTokenExpired = errors.New("token is expired")

// ProfileStore is a map from profile name to DeckProfile.
type ProfileStore map[string]*DeckProfile

type DeckCert struct {
	// base64 encoded CA certificate
	CA string `yaml:"ca,omitempty"`
}

// DeckProfile tells where and how to connect the orchestration API.
type DeckProfile struct {
	ApiRoot string   `yaml:"apiRoot"`
	Cert    DeckCert `yaml:"cert,omitempty"`

	// bearer token. JWT or an opaque one.
	Token string `yaml:"token,omitempty"`
}

func verifyUrl(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.IsAbs() && (u.Scheme == "http" || u.Scheme == "https")
}

func verifyPEM(b64cert string) bool {
	bin, err := base64.StdEncoding.DecodeString(b64cert)
	if err != nil {
		return false
	}
	blk, _ := pem.Decode(bin)
	return blk != nil
}

// tokenExpiry returns the expiry of token, if it is a JWT with "exp".
//
// Signature is not verified here. The orchestrator does.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		// opaque token
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Verify DeckProfile at now.
//
// # Return
//
// nil if it is valid. Otherwise, ErrProfileInvalid error.
// When the token is a JWT expired, the error is also ErrTokenExpired.
func (p *DeckProfile) Verify(now time.Time) error {
	if !verifyUrl(p.ApiRoot) {
		return fmt.Errorf("%w: apiRoot is not URL: %s", ErrProfileInvalid, p.ApiRoot)
	}
	if p.Cert.CA != "" && !verifyPEM(p.Cert.CA) {
		return fmt.Errorf("%w: cert.ca is not PEM", ErrProfileInvalid)
	}
	if p.Token != "" {
		if exp, ok := tokenExpiry(p.Token); ok && !now.Before(exp) {
			return fmt.Errorf(
				"%w: %w at %s", ErrProfileInvalid, ErrTokenExpired, exp.Format(time.RFC3339),
			)
		}
	}
	return nil
}

// Client builds a client of the orchestration API for the profile.
func (p *DeckProfile) Client() (rest.Client, error) {
	options := []rest.ClientOption{}
	if p.Cert.CA != "" {
		options = append(options, rest.WithCA(p.Cert.CA))
	}
	if p.Token != "" {
		options = append(options, rest.WithToken(p.Token))
	}
	return rest.NewClient(p.ApiRoot, options...)
}

// LoadProfileStore loads profile store from file.
func LoadProfileStore(filepath string) (ProfileStore, error) {
	buf, err := os.ReadFile(filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrProfileStoreNotFound, filepath)
		}
		return nil, err
	}
	return Unmarshal(buf)
}

// Unmarshal profile store from yaml.
func Unmarshal(buf []byte) (ProfileStore, error) {
	ret := ProfileStore{}
	if err := yaml.Unmarshal(buf, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// Save profile store to file, with permission 0600.
func (ps ProfileStore) Save(path string) error {
	buf, err := yaml.Marshal(ps)
	if err != nil {
		return err
	}
	return open.WriteSafeFile(path, buf)
}
