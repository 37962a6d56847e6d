// Command idsite-verify extracts and verifies a hosted-login callback URL.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/loginwire/idsite"
	"github.com/loginwire/idsite/redisnonce"
	"github.com/loginwire/idsite/restapi"
)

func main() {
	var (
		defaultKeyID     = os.Getenv("IDSITE_KEY_ID")
		defaultKeySecret = os.Getenv("IDSITE_KEY_SECRET")
		defaultRedisAddr = os.Getenv("IDSITE_REDIS_ADDR")
		defaultAPIURL    = os.Getenv("IDSITE_API_URL")
	)

	callbackURL := flag.String("callback-url", "", "Full callback URL including the response token parameter")
	keyID := flag.String("key-id", defaultKeyID, "API key id (env IDSITE_KEY_ID)")
	keySecret := flag.String("key-secret", defaultKeySecret, "API key secret (env IDSITE_KEY_SECRET)")
	redisAddr := flag.String("redis-addr", defaultRedisAddr, "Redis address for the shared nonce store; in-process store when empty (env IDSITE_REDIS_ADDR)")
	apiURL := flag.String("api-url", defaultAPIURL, "Hosted service API root; when set the verified account is fetched (env IDSITE_API_URL)")
	timeout := flag.Duration("timeout", 10*time.Second, "Timeout for verification lookups")
	flag.Parse()

	if *callbackURL == "" {
		flag.Usage()
		log.Fatal("callback-url is required")
	}
	if *keyID == "" || *keySecret == "" {
		flag.Usage()
		log.Fatal("key-id and key-secret are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var nonces idsite.NonceStore = idsite.NewMemoryStore()
	if *redisAddr != "" {
		store, err := redisnonce.Connect(ctx, *redisAddr, "", 0)
		if err != nil {
			log.Fatalf("connect nonce store: %v", err)
		}
		defer store.Close()
		nonces = store
	}

	keys := idsite.NewStaticKeyResolver(idsite.APIKey{ID: *keyID, Secret: *keySecret})
	verifier, err := idsite.NewVerifier(idsite.Config{}, keys, nonces)
	if err != nil {
		log.Fatalf("configure verifier: %v", err)
	}

	assertion, err := verifier.VerifyCallback(ctx, *callbackURL)
	if err != nil {
		log.Fatalf("verification failed: %v", err)
	}

	fmt.Printf("token id: %s\n", assertion.TokenID)
	fmt.Printf("issuer:   %s\n", assertion.Issuer)
	fmt.Printf("subject:  %s\n", assertion.Subject)
	fmt.Printf("new:      %t\n", assertion.IsNewSubject)
	if assertion.State != nil {
		fmt.Printf("state:    %s\n", *assertion.State)
	}

	if *apiURL == "" {
		return
	}

	client, err := restapi.New(restapi.Config{
		BaseURL:      *apiURL,
		APIKeyID:     *keyID,
		APIKeySecret: *keySecret,
	})
	if err != nil {
		log.Fatalf("configure API client: %v", err)
	}
	outcome, err := idsite.Finalize(ctx, assertion, client)
	if err != nil {
		log.Fatalf("resolve account: %v", err)
	}
	fmt.Printf("account:  %s <%s> (%s)\n", outcome.Account.Username, outcome.Account.Email, outcome.Account.Status)
}
