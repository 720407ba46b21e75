package app

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

const (
	codePrefix   = "QZ-"
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
)

// CodeChecker answers whether an access code is already taken.
type CodeChecker interface {
	CodeExists(ctx context.Context, code string) (bool, error)
}

// CodeGenerator produces collision-checked quiz access codes of the form
// QZ-XXXXXX. The store's uniqueness constraint remains the final arbiter;
// the pre-check only makes retries at insert time vanishingly rare
// (collision odds ~1/36^6 per draw).
type CodeGenerator struct {
	quizzes CodeChecker

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewCodeGenerator(quizzes CodeChecker) *CodeGenerator {
	return &CodeGenerator{
		quizzes: quizzes,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Generate draws codes until the store reports no collision. The loop has
// no upper bound but terminates in O(1) draws in practice.
func (g *CodeGenerator) Generate(ctx context.Context) (string, error) {
	for {
		code := g.candidate()
		taken, err := g.quizzes.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
}

func (g *CodeGenerator) candidate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	buf := make([]byte, codeLength)
	for i := range buf {
		buf[i] = codeAlphabet[g.rnd.Intn(len(codeAlphabet))]
	}
	return codePrefix + string(buf)
}
