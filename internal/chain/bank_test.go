package chain

import (
	"context"
	"testing"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	"github.com/elys-network/lstvault/internal/store"
	"github.com/elys-network/lstvault/internal/types"
)

func newBank(t *testing.T) Bank {
	t.Helper()
	return NewBank(store.NewMemory().KV())
}

func TestBankSendAndSupply(t *testing.T) {
	b := newBank(t)
	uluna := types.NativeInfo("uluna")

	require.NoError(t, b.Fund("alice", uluna.WithAmount(sdkmath.NewInt(1000))))
	require.NoError(t, b.Send("alice", "bob", uluna.WithAmount(sdkmath.NewInt(400))))

	alice, err := b.Balance("alice", uluna)
	require.NoError(t, err)
	bob, err := b.Balance("bob", uluna)
	require.NoError(t, err)
	supply, err := b.Supply(uluna)
	require.NoError(t, err)

	assert.Equal(t, int64(600), alice.Int64())
	assert.Equal(t, int64(400), bob.Int64())
	assert.Equal(t, int64(1000), supply.Int64())

	err = b.Send("bob", "alice", uluna.WithAmount(sdkmath.NewInt(401)))
	require.ErrorIs(t, err, types.ErrInsufficientBalance)
}

func TestBankMintRequiresAdmin(t *testing.T) {
	b := newBank(t)
	denom := FactoryDenom("hub", "ustake")

	admin, ok := FactoryAdmin(denom)
	require.True(t, ok)
	assert.Equal(t, "hub", admin)

	stake := types.NativeAsset(denom, sdkmath.NewInt(50))
	require.ErrorIs(t, b.Mint("mallory", "mallory", stake), types.ErrUnauthorized)
	require.NoError(t, b.Mint("hub", "alice", stake))

	require.NoError(t, b.Send("alice", "hub", types.NativeAsset(denom, sdkmath.NewInt(20))))
	require.NoError(t, b.Burn("hub", types.NativeAsset(denom, sdkmath.NewInt(20))))

	supply, err := b.Supply(stake.Info)
	require.NoError(t, err)
	assert.Equal(t, int64(30), supply.Int64())

	token := types.IssuedAsset("lp_token", sdkmath.NewInt(5))
	require.ErrorIs(t, b.Mint("hub", "alice", token), types.ErrUnauthorized)
	require.NoError(t, b.Mint("lp_token", "alice", token))
}

func TestBankAllBalancesSkipsZero(t *testing.T) {
	b := newBank(t)
	require.NoError(t, b.Fund("alice", types.NativeAsset("uluna", sdkmath.NewInt(3))))
	require.NoError(t, b.Fund("alice", types.IssuedAsset("lp", sdkmath.NewInt(7))))
	require.NoError(t, b.Send("alice", "bob", types.NativeAsset("uluna", sdkmath.NewInt(3))))

	all, err := b.AllBalances("alice")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, types.IssuedInfo("lp"), all[0].Info)
	assert.Equal(t, int64(7), all[0].Amount.Int64())
}

type mockBankClient struct {
	banktypes.QueryClient
	mock.Mock
}

func (m *mockBankClient) Balance(ctx context.Context, in *banktypes.QueryBalanceRequest, _ ...grpc.CallOption) (*banktypes.QueryBalanceResponse, error) {
	args := m.Called(in.Address, in.Denom)
	res, _ := args.Get(0).(*banktypes.QueryBalanceResponse)
	return res, args.Error(1)
}

func TestGRPCBankBalance(t *testing.T) {
	client := &mockBankClient{}
	coin := sdk.NewCoin("uluna", sdkmath.NewInt(42))
	client.On("Balance", "hub", "uluna").Return(&banktypes.QueryBalanceResponse{Balance: &coin}, nil)
	client.On("Balance", "hub", "uatom").Return(&banktypes.QueryBalanceResponse{}, nil)

	g := NewGRPCBankFromClient(client)

	got, err := g.Balance(context.Background(), "hub", "uluna")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.Int64())

	got, err = g.Balance(context.Background(), "hub", "uatom")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	client.AssertExpectations(t)
}

func TestNewGRPCBankRejectsNil(t *testing.T) {
	_, err := NewGRPCBank(nil)
	require.ErrorIs(t, err, ErrNilConnection)
}
