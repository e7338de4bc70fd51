package blockchain

import "errors"

var (
	ErrChainMissing       = errors.New("blockchain: no chain found, create one first")
	ErrChainAlreadyExists = errors.New("blockchain: chain already exists")
	ErrWalletNotFound     = errors.New("blockchain: wallet not found")
	ErrNotEnoughFunds     = errors.New("blockchain: not enough funds")
	ErrBadTransaction     = errors.New("blockchain: invalid transaction")
	ErrBadRequest         = errors.New("blockchain: bad request")
	ErrStore              = errors.New("blockchain: store failure")
	ErrPowHashNotFound    = errors.New("blockchain: exhausted nonce space without finding a valid hash")
)
