// Minimal end-to-end smoke test for the read-only gem-tracker API.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	baseURL = getenv("API_URL", "http://localhost:8080")
	secret  = getenv("API_JWT_SECRET", "")
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	if secret == "" {
		log.Fatal("API_JWT_SECRET must be set")
	}

	doReq("/healthz", "", nil, http.StatusOK)
	doReq("/v1/scopes", "", nil, http.StatusUnauthorized)

	token := mint()

	var scopes struct{ Scopes []string }
	doReq("/v1/scopes", token, &scopes, http.StatusOK)
	log.Printf("scopes: %v", scopes.Scopes)

	for _, scope := range scopes.Scopes {
		var tracked struct {
			Entries []struct{ Name, Author, Badge string }
			Max     int
		}
		doReq("/v1/scopes/"+url.PathEscape(scope)+"/tracked", token, &tracked, http.StatusOK)
		if len(tracked.Entries) > tracked.Max {
			log.Fatalf("scope %s: %d entries exceeds max %d", scope, len(tracked.Entries), tracked.Max)
		}
		log.Printf("scope %s: %d/%d tracked", scope, len(tracked.Entries), tracked.Max)
	}

	var open struct {
		Proposals []struct{ ID, Kind, ScopeID string }
	}
	doReq("/v1/proposals", token, &open, http.StatusOK)
	log.Printf("open proposals: %d", len(open.Proposals))

	fmt.Println("✓ all endpoints passed")
}

func mint() string {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "smoke-" + uuid.NewString(),
		"exp": time.Now().Add(5 * time.Minute).Unix(),
	}).SignedString([]byte(secret))
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}
	return tok
}

func doReq(path, token string, out any, want int) {
	req, _ := http.NewRequest(http.MethodGet, baseURL+path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("GET %s: %v", path, err)
	}
	defer res.Body.Close()
	if res.StatusCode != want {
		log.Fatalf("GET %s: want %d got %d", path, want, res.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			log.Fatalf("GET %s decode: %v", path, err)
		}
	}
}
