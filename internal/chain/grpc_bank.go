package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
)

// BalanceSource reports custody balances held outside the engine, e.g. on a node.
type BalanceSource interface {
	Balance(ctx context.Context, address, denom string) (sdkmath.Int, error)
}

var (
	ErrNilConnection  = errors.New("gRPC connection is nil")
	ErrConnectionDown = errors.New("gRPC connection is shut down")
)

const grpcQueryTimeout = 10 * time.Second

// GRPCBank reads balances through the bank module's gRPC query service.
type GRPCBank struct {
	client banktypes.QueryClient
}

// NewGRPCBank wraps an established connection. The connection stays owned by the caller.
func NewGRPCBank(conn *grpc.ClientConn) (*GRPCBank, error) {
	if conn == nil {
		return nil, ErrNilConnection
	}
	if conn.GetState() == connectivity.Shutdown {
		return nil, ErrConnectionDown
	}
	return &GRPCBank{client: banktypes.NewQueryClient(conn)}, nil
}

// NewGRPCBankFromClient is used with an already constructed query client.
func NewGRPCBankFromClient(client banktypes.QueryClient) *GRPCBank {
	return &GRPCBank{client: client}
}

func (g *GRPCBank) Balance(ctx context.Context, address, denom string) (sdkmath.Int, error) {
	ctx, cancel := context.WithTimeout(ctx, grpcQueryTimeout)
	defer cancel()

	res, err := g.client.Balance(ctx, &banktypes.QueryBalanceRequest{Address: address, Denom: denom})
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("failed to query balance of %s in %s: %w", address, denom, err)
	}
	if res.Balance == nil || res.Balance.Amount.IsNil() {
		return sdkmath.ZeroInt(), nil
	}
	return res.Balance.Amount, nil
}
