// Command tokengen mints identity tokens for POST /auth/linked and inspects
// session tokens issued by the server. Keys and issuer come from the same
// environment the server reads.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	jwttoken "syncauth/internal/jwt_token"
	"syncauth/internal/platform/config"
)

const usage = `tokengen - identity and session token helper for syncauth

Usage:
  tokengen identity -primary-uid <uid> [-ttl 5m] [-key <secret>] [-json]
  tokengen inspect  -token <session token> [-key <secret>]

Example:
  TOKEN=$(tokengen identity -primary-uid demo-primary -json | jq -r .token)
  curl -X POST -H "Authorization: Bearer $TOKEN" \
       -d '{"requested_uid":"demo-secondary"}' http://localhost:8080/auth/linked`

var errUsage = errors.New("usage")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "tokengen:", err)
		}
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	switch args[0] {
	case "identity":
		return identity(cfg, args[1:], out)
	case "inspect":
		return inspect(cfg, args[1:], out)
	case "help", "-h", "--help":
		fmt.Fprintln(out, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

type identityOutput struct {
	Token     string `json:"token"`
	Subject   string `json:"sub"`
	ExpiresAt string `json:"expires_at"`
	Endpoint  string `json:"endpoint"`
}

func identity(cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("identity", flag.ContinueOnError)
	primaryUID := fs.String("primary-uid", "", "verified primary account UID")
	key := fs.String("key", "", "identity signing key (default IDENTITY_SIGNING_KEY, then JWT_SIGNING_KEY)")
	ttl := fs.Duration("ttl", 5*time.Minute, "token lifetime")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *primaryUID == "" {
		return errors.New("-primary-uid is required")
	}

	signing := firstNonEmpty(*key, cfg.Server.IdentityKey, cfg.Server.JWTSigningKey)
	svc := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, signing, cfg.Server.TokenIssuer, cfg.Server.TokenTTL)
	token, err := svc.GenerateIdentityToken(*primaryUID, *ttl)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(identityOutput{
			Token:     token,
			Subject:   *primaryUID,
			ExpiresAt: time.Now().Add(*ttl).UTC().Format(time.RFC3339),
			Endpoint:  "POST /auth/linked",
		})
	}
	fmt.Fprintf(out, "identity token for %s (expires in %s)\n\n%s\n", *primaryUID, *ttl, token)
	return nil
}

func inspect(cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	token := fs.String("token", "", "session token returned by /auth/key or /auth/linked")
	key := fs.String("key", "", "session signing key (default JWT_SIGNING_KEY)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *token == "" {
		return errors.New("-token is required")
	}

	svc := jwttoken.NewJWTService(firstNonEmpty(*key, cfg.Server.JWTSigningKey), "", cfg.Server.TokenIssuer, cfg.Server.TokenTTL)
	claims, err := svc.ValidateSessionToken(*token)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(claims)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
