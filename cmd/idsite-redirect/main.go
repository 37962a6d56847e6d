// Command idsite-redirect builds a signed hosted-login redirect URL.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/loginwire/idsite"
)

func main() {
	var (
		defaultLoginURL  = os.Getenv("IDSITE_LOGIN_URL")
		defaultSubject   = os.Getenv("IDSITE_SUBJECT_HREF")
		defaultKeyID     = os.Getenv("IDSITE_KEY_ID")
		defaultKeySecret = os.Getenv("IDSITE_KEY_SECRET")
	)

	loginURL := flag.String("login-url", defaultLoginURL, "Hosted login endpoint (env IDSITE_LOGIN_URL)")
	subject := flag.String("subject", defaultSubject, "Application href used as the sub claim (env IDSITE_SUBJECT_HREF)")
	keyID := flag.String("key-id", defaultKeyID, "API key id (env IDSITE_KEY_ID)")
	keySecret := flag.String("key-secret", defaultKeySecret, "API key secret (env IDSITE_KEY_SECRET)")
	callbackURI := flag.String("cb-uri", "", "Callback URI the login page returns to")
	path := flag.String("path", "", "Optional UI route on the login page, e.g. /#/register")
	state := flag.String("state", "", "Optional opaque state echoed back on the callback")
	expiresIn := flag.Duration("expires-in", 0, "Optional assertion validity window")
	flag.Parse()

	if *callbackURI == "" {
		flag.Usage()
		log.Fatal("cb-uri is required")
	}

	builder, err := idsite.NewRedirectBuilder(idsite.Config{
		LoginURL:    *loginURL,
		SubjectHref: *subject,
	})
	if err != nil {
		log.Fatalf("configure builder: %v", err)
	}

	var opts []idsite.BuildOption
	if *path != "" {
		opts = append(opts, idsite.WithPath(*path))
	}
	if *state != "" {
		opts = append(opts, idsite.WithState(*state))
	}
	if *expiresIn > 0 {
		opts = append(opts, idsite.WithExpiresIn(*expiresIn))
	}

	redirect, err := builder.Build(idsite.APIKey{ID: *keyID, Secret: *keySecret}, *callbackURI, opts...)
	if err != nil {
		log.Fatalf("build redirect: %v", err)
	}

	fmt.Println(redirect)
}
