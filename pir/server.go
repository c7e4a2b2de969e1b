package pir

import (
	"github.com/heprivacy/hepir/bfv"
	"github.com/heprivacy/hepir/herrors"
	"github.com/heprivacy/hepir/rlwe"
)

// Server answers a client's compressed PIR query against a ProcessedDatabase
// without ever learning which plaintext the client selected.
type Server struct {
	ctx       *rlwe.Context
	db        *ProcessedDatabase
	evaluator *bfv.Evaluator
}

// NewServer builds a Server over db, using ek for query expansion and
// (when the layout needs a second dimension) relinearization.
func NewServer(ctx *rlwe.Context, db *ProcessedDatabase, ek *rlwe.EvaluationKey) *Server {
	return &Server{ctx: ctx, db: db, evaluator: bfv.NewEvaluator(ctx, ek)}
}

// Answer expands query into one selector ciphertext per hypercube
// coordinate per batch slot, then folds the database down one dimension at
// a time, independently for each batch slot: the first dimension folds via
// ciphertext-plaintext multiply-accumulate (no degree growth), every
// subsequent dimension via ciphertext-ciphertext multiply-accumulate
// followed by relinearization. The returned slice has one response
// ciphertext per index the client packed into query, in the same order.
func (s *Server) Answer(query *rlwe.Ciphertext) ([]*rlwe.Ciphertext, error) {
	slotWidth := s.db.Params.CompressedQuerySize()
	batchSize := s.db.Params.BatchSize

	expanded, err := ExpandQuery(s.ctx, s.evaluator, query, slotWidth*batchSize)
	if err != nil {
		return nil, err
	}

	responses := make([]*rlwe.Ciphertext, batchSize)
	for b := 0; b < batchSize; b++ {
		response, err := s.answerOne(expanded[b*slotWidth : (b+1)*slotWidth])
		if err != nil {
			return nil, err
		}
		responses[b] = response
	}
	return responses, nil
}

// answerOne runs the per-dimension fold for a single batch slot's selector
// slice (sum(dims) ciphertexts, laid out dimension-major).
func (s *Server) answerOne(slotSelectors []*rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	dims := s.db.Params.Dimensions

	selectors := make([][]*rlwe.Ciphertext, len(dims))
	offset := 0
	for i, d := range dims {
		selectors[i] = slotSelectors[offset : offset+d]
		offset += d
	}

	plaintexts := s.db.Plaintexts
	var ciphertexts []*rlwe.Ciphertext
	remaining := dims

	for dimIdx, d := range dims {
		stride := product(remaining[1:])

		if dimIdx == 0 {
			ciphertexts = make([]*rlwe.Ciphertext, stride)
			for cell := 0; cell < stride; cell++ {
				acc, err := s.foldPlaintextDim(selectors[0], plaintexts, cell, stride, d)
				if err != nil {
					return nil, err
				}
				ciphertexts[cell] = acc
			}
		} else {
			next := make([]*rlwe.Ciphertext, stride)
			for cell := 0; cell < stride; cell++ {
				acc, err := s.foldCiphertextDim(selectors[dimIdx], ciphertexts, cell, stride, d)
				if err != nil {
					return nil, err
				}
				next[cell] = acc
			}
			ciphertexts = next
		}

		remaining = remaining[1:]
	}

	if len(ciphertexts) != 1 {
		return nil, herrors.New(herrors.InvalidDatabase, "fold produced %d ciphertexts, expected 1", len(ciphertexts))
	}
	return ciphertexts[0], nil
}

func (s *Server) foldPlaintextDim(selector []*rlwe.Ciphertext, plaintexts []*bfv.Plaintext, cell, stride, d int) (*rlwe.Ciphertext, error) {
	var acc *rlwe.Ciphertext
	for k := 0; k < d; k++ {
		pt := plaintexts[k*stride+cell]
		if pt == nil || pt.IsZero() {
			continue
		}
		term, err := s.evaluator.MulPlain(selector[k], pt)
		if err != nil {
			return nil, err
		}
		if acc == nil {
			acc = term
			continue
		}
		acc, err = s.evaluator.Add(acc, term)
		if err != nil {
			return nil, err
		}
	}
	if acc == nil {
		level, err := s.emptyLevel()
		if err != nil {
			return nil, err
		}
		return rlwe.NewCiphertext(s.ctx, 2, level)
	}
	return acc, nil
}

func (s *Server) foldCiphertextDim(selector, prior []*rlwe.Ciphertext, cell, stride, d int) (*rlwe.Ciphertext, error) {
	var acc *rlwe.Ciphertext
	for k := 0; k < d; k++ {
		c := prior[k*stride+cell]
		product, err := s.evaluator.Mul(selector[k], c)
		if err != nil {
			return nil, err
		}
		product, err = s.evaluator.Relinearize(product)
		if err != nil {
			return nil, err
		}
		if acc == nil {
			acc = product
			continue
		}
		acc, err = s.evaluator.Add(acc, product)
		if err != nil {
			return nil, err
		}
	}
	if acc == nil {
		level, err := s.emptyLevel()
		if err != nil {
			return nil, err
		}
		return rlwe.NewCiphertext(s.ctx, 2, level)
	}
	return acc, nil
}

func (s *Server) emptyLevel() (int, error) {
	return s.ctx.RingQ.Level(), nil
}
