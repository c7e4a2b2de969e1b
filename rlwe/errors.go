package rlwe

import "github.com/heprivacy/hepir/herrors"

func errNotRelinearizable(degree int) error {
	return herrors.New(herrors.InvalidParameter, "cannot relinearize a degree-%d ciphertext, expected degree 2", degree)
}

func errGaloisDegree(degree int) error {
	return herrors.New(herrors.InvalidParameter, "cannot apply a Galois automorphism to a degree-%d ciphertext, expected degree 1", degree-1)
}

func errMissingGaloisKey(element uint64) error {
	return herrors.New(herrors.MissingGaloisKey, "no key-switching key for Galois element %d", element)
}
