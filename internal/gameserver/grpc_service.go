package gameserver

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/omnissiah/internal/game/combat"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "omnissiah.v1.CombatService"

// Full method names, for clients and interceptors.
const (
	ResolveAttackMethod = "/" + ServiceName + "/ResolveAttack"
	ListActionsMethod   = "/" + ServiceName + "/ListActions"
	ListWeaponsMethod   = "/" + ServiceName + "/ListWeapons"
	RollDiceMethod      = "/" + ServiceName + "/RollDice"
)

// CombatServiceServer is the server API for CombatService. Messages are
// google.protobuf.Struct documents carrying the JSON form of the domain types.
type CombatServiceServer interface {
	ResolveAttack(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListActions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListWeapons(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RollDice(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// CombatServiceDesc describes CombatService for grpc.Server.RegisterService.
var CombatServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CombatServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ResolveAttack", Handler: unaryHandler(ResolveAttackMethod, CombatServiceServer.ResolveAttack)},
		{MethodName: "ListActions", Handler: unaryHandler(ListActionsMethod, CombatServiceServer.ListActions)},
		{MethodName: "ListWeapons", Handler: unaryHandler(ListWeaponsMethod, CombatServiceServer.ListWeapons)},
		{MethodName: "RollDice", Handler: unaryHandler(RollDiceMethod, CombatServiceServer.RollDice)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "omnissiah/v1/combat.proto",
}

type unaryMethod func(CombatServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CombatServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CombatServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// RegisterCombatServiceServer registers srv on s.
func RegisterCombatServiceServer(s grpc.ServiceRegistrar, srv CombatServiceServer) {
	s.RegisterService(&CombatServiceDesc, srv)
}

// GRPCServer adapts CombatService to CombatServiceServer.
type GRPCServer struct {
	svc    *CombatService
	logger *zap.Logger
}

// NewGRPCServer creates a GRPCServer.
//
// Precondition: svc and logger must be non-nil.
func NewGRPCServer(svc *CombatService, logger *zap.Logger) *GRPCServer {
	return &GRPCServer{svc: svc, logger: logger}
}

// ResolveAttack decodes an AttackRequest document and returns the AttackResult.
func (g *GRPCServer) ResolveAttack(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req AttackRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decoding request: %v", err)
	}
	result, err := g.svc.Attack(ctx, req)
	if err != nil {
		return nil, g.toStatus(err)
	}
	return encodeStruct(result)
}

// ListActions returns {"actions": [{name, cost, special}...]}.
func (g *GRPCServer) ListActions(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return encodeStruct(map[string]any{"actions": ActionViews(g.svc.Actions())})
}

// ListWeapons returns {"presets": [...], "armoury": [...]}; the armoury is
// included when the request names an owner.
func (g *GRPCServer) ListWeapons(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	out := map[string]any{"presets": g.svc.Presets().All()}
	if owner := in.GetFields()["owner"].GetStringValue(); owner != "" {
		recs, err := g.svc.Armoury().List(ctx, owner)
		if err != nil {
			return nil, g.toStatus(err)
		}
		out["armoury"] = recs
	}
	return encodeStruct(out)
}

// RollDice rolls {"expression": "2d10+3"}.
func (g *GRPCServer) RollDice(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	fields := in.GetFields()
	res, err := g.svc.Roll(
		fields["actor"].GetStringValue(),
		fields["expression"].GetStringValue(),
		fields["publish"].GetBoolValue(),
	)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return encodeStruct(map[string]any{
		"expression": res.Expression,
		"dice":       res.Dice,
		"modifier":   res.Modifier,
		"total":      res.Total(),
		"text":       res.String(),
	})
}

func (g *GRPCServer) toStatus(err error) error {
	switch {
	case IsNotFound(err):
		return status.Error(codes.NotFound, err.Error())
	case IsInvalidInput(err):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		g.logger.Error("grpc: internal error", zap.Error(err))
		return status.Error(codes.Internal, "internal error")
	}
}

// ActionView is the wire form of a combat.Action.
type ActionView struct {
	Name    string `json:"name"`
	Cost    string `json:"cost"`
	Special string `json:"special,omitempty"`
}

// ActionViews projects actions for transport.
func ActionViews(actions []combat.Action) []ActionView {
	out := make([]ActionView, 0, len(actions))
	for _, a := range actions {
		out = append(out, ActionView{Name: a.Name, Cost: a.Cost.String(), Special: a.Special})
	}
	return out
}

func decodeStruct(in *structpb.Struct, v any) error {
	raw, err := protojson.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func encodeStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	return out, nil
}

// DecodeStruct unmarshals a Struct response into v, e.g. a combat.AttackResult.
func DecodeStruct(in *structpb.Struct, v any) error { return decodeStruct(in, v) }

// EncodeStruct marshals v into a Struct request.
func EncodeStruct(v any) (*structpb.Struct, error) { return encodeStruct(v) }
