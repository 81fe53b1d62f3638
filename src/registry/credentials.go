// Package registry holds the credential gate and the manifest inspection
// client used after a push.
package registry

import (
	"fmt"
	"os"
	"strings"

	"github.com/sofmeright/slipway/src/event"
)

// Credentials is an opaque username/password pair for registry auth.
// It is resolved transiently, passed by reference into the authenticate
// step, and never persisted. The password never appears in output.
type Credentials struct {
	Username string
	Password string
}

// String redacts the password. Credentials sometimes end up in verbose
// logs via %v, and this is the only line of defense there.
func (c *Credentials) String() string {
	return fmt.Sprintf("%s:<redacted>", c.Username)
}

// MissingCredentialsError is returned when the event requires registry
// credentials but the environment has none.
type MissingCredentialsError struct {
	Prefix string
}

func (e *MissingCredentialsError) Error() string {
	return fmt.Sprintf("registry credentials required but %s_USER / %s_PASS are unset", e.Prefix, e.Prefix)
}

// CredentialsFor is the credential gate. Non-pull-request events get
// credentials resolved from the environment using the configured prefix
// (PREFIX_USER / PREFIX_PASS); pull requests get nil so the authenticate
// step's guard skips. Required-but-absent credentials are an error, never a
// silent empty pair.
func CredentialsFor(ev *event.TriggerEvent, prefix string) (*Credentials, error) {
	if ev.IsPullRequest() {
		return nil, nil
	}

	p := strings.ToUpper(prefix)
	user := os.Getenv(p + "_USER")
	pass := os.Getenv(p + "_PASS")
	if user == "" || pass == "" {
		return nil, &MissingCredentialsError{Prefix: p}
	}
	return &Credentials{Username: user, Password: pass}, nil
}
