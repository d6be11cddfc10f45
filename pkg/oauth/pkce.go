package oauth

import "golang.org/x/oauth2"

// GeneratePKCE generates a new PKCE code verifier and its S256 challenge.
// The verifier is 32 random bytes, base64url-encoded.
func GeneratePKCE() *PKCEChallenge {
	verifier := oauth2.GenerateVerifier()
	return &PKCEChallenge{
		CodeVerifier:        verifier,
		CodeChallenge:       oauth2.S256ChallengeFromVerifier(verifier),
		CodeChallengeMethod: "S256",
	}
}
