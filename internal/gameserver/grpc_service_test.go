package gameserver_test

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/omnissiah/internal/game/combat"
	"github.com/cory-johannsen/omnissiah/internal/gameserver"
)

func dialService(t *testing.T, svc *gameserver.CombatService) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	gameserver.RegisterCombatServiceServer(srv, gameserver.NewGRPCServer(svc, zaptest.NewLogger(t)))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func invoke(t *testing.T, conn *grpc.ClientConn, method string, in any) (*structpb.Struct, error) {
	t.Helper()
	req, err := gameserver.EncodeStruct(in)
	require.NoError(t, err)
	out := new(structpb.Struct)
	err = conn.Invoke(context.Background(), method, req, out)
	return out, err
}

func TestGRPC_ResolveAttack(t *testing.T) {
	svc, _ := newService(t, 4)
	conn := dialService(t, svc)

	out, err := invoke(t, conn, gameserver.ResolveAttackMethod, gameserver.AttackRequest{
		WeaponRef:      "laspistol",
		Characteristic: 40,
		Actions:        []string{"aim half"},
		TargetRange:    20,
	})
	require.NoError(t, err)

	var res combat.AttackResult
	require.NoError(t, gameserver.DecodeStruct(out, &res))
	assert.True(t, res.Success)
	assert.Equal(t, 50, res.Test)
	assert.Equal(t, "5 <= (40+10=50)", res.TestBreakdown)
	assert.Equal(t, []string{combat.AimHalf}, res.Actions)
	assert.Equal(t, 1, res.Hits)
}

func TestGRPC_ResolveAttackErrorCodes(t *testing.T) {
	svc, _ := newService(t, 4)
	conn := dialService(t, svc)

	_, err := invoke(t, conn, gameserver.ResolveAttackMethod, gameserver.AttackRequest{
		WeaponRef: "laspistol", Characteristic: 40, Actions: []string{"dance"},
	})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = invoke(t, conn, gameserver.ResolveAttackMethod, gameserver.AttackRequest{
		WeaponRef: "meltagun", Characteristic: 40,
	})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestGRPC_ListActions(t *testing.T) {
	svc, _ := newService(t, 4)
	conn := dialService(t, svc)

	out, err := invoke(t, conn, gameserver.ListActionsMethod, map[string]any{})
	require.NoError(t, err)
	var body struct {
		Actions []gameserver.ActionView `json:"actions"`
	}
	require.NoError(t, gameserver.DecodeStruct(out, &body))
	require.Len(t, body.Actions, 8)
	assert.Equal(t, combat.AimFull, body.Actions[0].Name)
	assert.Equal(t, "full", body.Actions[0].Cost)
}

func TestGRPC_ListWeaponsAndRoll(t *testing.T) {
	svc, _ := newService(t, 4)
	conn := dialService(t, svc)

	out, err := invoke(t, conn, gameserver.ListWeaponsMethod, map[string]any{"owner": "ann"})
	require.NoError(t, err)
	assert.Len(t, out.GetFields()["presets"].GetListValue().GetValues(), 1)
	assert.Empty(t, out.GetFields()["armoury"].GetListValue().GetValues())

	out, err = invoke(t, conn, gameserver.RollDiceMethod, map[string]any{"expression": "1d10"})
	require.NoError(t, err)
	assert.Equal(t, float64(5), out.GetFields()["total"].GetNumberValue())

	_, err = invoke(t, conn, gameserver.RollDiceMethod, map[string]any{"expression": "xyz"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
