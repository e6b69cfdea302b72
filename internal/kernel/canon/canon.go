// Package canon canonicalizes envelope content and computes its
// content-address. Field order is enforced by hand-building the byte
// sequence from EnvelopeContentV1's fields, not by relying on
// encoding/json's sorted-map-key behavior for the top level — only the
// free-form Content map falls back to encoding/json's key sort, which is
// ASCII order and therefore already canonical for that nested value.
package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
)

// Canonicalize renders an EnvelopeContentV1 as the fixed-field-order JSON
// body the kernel hashes. The field order matches the wire contract in
// the envelope payload spec: envelope_version, tenant_id, workspace_id,
// user_id?, persona_id, policy_id, policy_version, territory_id?,
// persona_resolution_path, persona_resolution_scope,
// territory_resolution_path, content, sealed_at, sealed_by, expires_at?.
func Canonicalize(c domain.EnvelopeContentV1) ([]byte, error) {
	contentJSON, err := canonicalJSONValue(c.Content)
	if err != nil {
		return nil, fmt.Errorf("canonicalize content: %w", err)
	}

	var buf []byte
	buf = append(buf, '{')

	write := func(first bool, key string, value []byte) {
		if !first {
			buf = append(buf, ',')
		}
		buf = append(buf, '"')
		buf = append(buf, key...)
		buf = append(buf, '"', ':')
		buf = append(buf, value...)
	}

	first := true
	field := func(key string, value []byte) {
		write(first, key, value)
		first = false
	}

	field("envelope_version", jsonString(c.EnvelopeVersion))
	field("tenant_id", jsonString(c.TenantID))
	field("workspace_id", jsonString(c.WorkspaceID))
	if c.UserID != "" {
		field("user_id", jsonString(c.UserID))
	}
	field("persona_id", jsonString(c.PersonaID))
	field("policy_id", jsonString(c.PolicyID))
	field("policy_version", jsonInt(c.PolicyVersion))
	if c.TerritoryID != "" {
		field("territory_id", jsonString(c.TerritoryID))
	}
	field("persona_resolution_path", jsonString(c.PersonaResolutionPath))
	field("persona_resolution_scope", jsonString(string(c.PersonaResolutionScope)))
	field("territory_resolution_path", jsonString(c.TerritoryResolutionPath))
	field("content", contentJSON)
	field("sealed_at", jsonTime(c.SealedAt))
	field("sealed_by", jsonString(c.SealedBy))
	if c.ExpiresAt != nil {
		field("expires_at", jsonTime(*c.ExpiresAt))
	}

	buf = append(buf, '}')
	return buf, nil
}

// Hash returns the lowercase-hex SHA-256 of the canonical form.
func Hash(c domain.EnvelopeContentV1) (string, error) {
	body, err := Canonicalize(c)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}

func jsonString(s string) []byte {
	b, _ := json.Marshal(s)
	return b
}

func jsonInt(i int) []byte {
	return []byte(fmt.Sprintf("%d", i))
}

func jsonTime(t time.Time) []byte {
	return jsonString(t.UTC().Format(time.RFC3339Nano))
}

// canonicalJSONValue marshals an arbitrary content map. encoding/json
// already sorts map keys in ASCII byte order when marshaling, and emits
// no insignificant whitespace with the default Marshal, so this is
// already canonical for the nested free-form content.
func canonicalJSONValue(v map[string]interface{}) ([]byte, error) {
	if v == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(v)
}
