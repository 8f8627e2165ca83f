package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/agenthands/meddesert/internal/store"
)

const UserKey = "vip_user"

// Operator is the signed-in dashboard user.
type Operator struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// MockOperator is the identity every login resolves to. There is no credential check.
func MockOperator() Operator {
	return Operator{
		Email: "operator@vip.layer",
		Name:  "Verified Operator",
		Role:  "Federated Analyst",
	}
}

// Sessions ties tokens to server-side entries so a logout revokes the token.
type Sessions struct {
	KV     store.KVStore
	Issuer *Issuer
}

func NewSessions(kv store.KVStore, issuer *Issuer) *Sessions {
	return &Sessions{KV: kv, Issuer: issuer}
}

func sessionNamespace(id string) string {
	return "session:" + id
}

// Login stores the mock operator under a new session and returns its token.
func (s *Sessions) Login(ctx context.Context) (string, Operator, error) {
	op := MockOperator()
	id := uuid.New().String()

	data, err := json.Marshal(op)
	if err != nil {
		return "", Operator{}, fmt.Errorf("failed to encode operator: %w", err)
	}
	if err := s.KV.Set(ctx, sessionNamespace(id), UserKey, string(data), s.Issuer.TTL()); err != nil {
		return "", Operator{}, fmt.Errorf("failed to store session: %w", err)
	}

	token, err := s.Issuer.Issue(op, id)
	if err != nil {
		return "", Operator{}, err
	}
	return token, op, nil
}

// Authenticate resolves a token to its operator. Tokens of logged-out sessions are rejected.
func (s *Sessions) Authenticate(ctx context.Context, token string) (*Operator, error) {
	claims, err := s.Issuer.Parse(token)
	if err != nil {
		return nil, err
	}
	data, err := s.KV.Get(ctx, sessionNamespace(claims.ID), UserKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}

	var op Operator
	if err := json.Unmarshal([]byte(data), &op); err != nil {
		return nil, fmt.Errorf("failed to decode session user: %w", err)
	}
	return &op, nil
}

// Logout removes the session behind token.
func (s *Sessions) Logout(ctx context.Context, token string) error {
	claims, err := s.Issuer.Parse(token)
	if err != nil {
		return err
	}
	return s.KV.Delete(ctx, sessionNamespace(claims.ID), UserKey)
}
