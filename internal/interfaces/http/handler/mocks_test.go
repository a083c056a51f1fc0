package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	ledgerapp "github.com/shopledger/backend/internal/application/ledger"
	"github.com/shopledger/backend/internal/domain/ledger"
	"github.com/shopledger/backend/internal/domain/shared"
)

type mockStockService struct {
	mock.Mock
}

func (m *mockStockService) AddStock(ctx context.Context, tenantID, actorID uuid.UUID, cmd ledgerapp.AddStockCommand) (*ledgerapp.UnitResponse, error) {
	args := m.Called(ctx, tenantID, actorID, cmd)
	if r := args.Get(0); r != nil {
		return r.(*ledgerapp.UnitResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStockService) AddSerializedUnit(ctx context.Context, tenantID, actorID uuid.UUID, cmd ledgerapp.AddSerializedUnitCommand) (*ledgerapp.UnitResponse, error) {
	args := m.Called(ctx, tenantID, actorID, cmd)
	if r := args.Get(0); r != nil {
		return r.(*ledgerapp.UnitResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStockService) AdjustStock(ctx context.Context, tenantID, actorID uuid.UUID, cmd ledgerapp.AdjustStockCommand) (*ledgerapp.UnitResponse, error) {
	args := m.Called(ctx, tenantID, actorID, cmd)
	if r := args.Get(0); r != nil {
		return r.(*ledgerapp.UnitResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStockService) TransferStock(ctx context.Context, tenantID, actorID uuid.UUID, cmd ledgerapp.TransferStockCommand) (*ledgerapp.TransferResult, error) {
	args := m.Called(ctx, tenantID, actorID, cmd)
	if r := args.Get(0); r != nil {
		return r.(*ledgerapp.TransferResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStockService) CommitForConsumption(ctx context.Context, tenantID, actorID uuid.UUID, cmd ledgerapp.ConsumeStockCommand) (*ledgerapp.ConsumptionResult, error) {
	args := m.Called(ctx, tenantID, actorID, cmd)
	if r := args.Get(0); r != nil {
		return r.(*ledgerapp.ConsumptionResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStockService) ReverseConsumption(ctx context.Context, tenantID, actorID uuid.UUID, cmd ledgerapp.ReverseConsumptionCommand) ([]ledgerapp.UnitResponse, error) {
	args := m.Called(ctx, tenantID, actorID, cmd)
	if r := args.Get(0); r != nil {
		return r.([]ledgerapp.UnitResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStockService) Restock(ctx context.Context, tenantID, actorID uuid.UUID, cmd ledgerapp.RestockCommand) (*ledgerapp.UnitResponse, error) {
	args := m.Called(ctx, tenantID, actorID, cmd)
	if r := args.Get(0); r != nil {
		return r.(*ledgerapp.UnitResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStockService) Assemble(ctx context.Context, tenantID, actorID uuid.UUID, cmd ledgerapp.AssembleCommand) (*ledgerapp.UnitResponse, error) {
	args := m.Called(ctx, tenantID, actorID, cmd)
	if r := args.Get(0); r != nil {
		return r.(*ledgerapp.UnitResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStockService) Disassemble(ctx context.Context, tenantID, actorID uuid.UUID, cmd ledgerapp.DisassembleCommand) ([]ledgerapp.UnitResponse, error) {
	args := m.Called(ctx, tenantID, actorID, cmd)
	if r := args.Get(0); r != nil {
		return r.([]ledgerapp.UnitResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStockService) ConsumeRepairPart(ctx context.Context, tenantID, actorID uuid.UUID, cmd ledgerapp.RepairPartCommand) (*ledgerapp.ConsumptionResult, error) {
	args := m.Called(ctx, tenantID, actorID, cmd)
	if r := args.Get(0); r != nil {
		return r.(*ledgerapp.ConsumptionResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStockService) ReverseRepairPart(ctx context.Context, tenantID, actorID uuid.UUID, repairLineID, reason string) ([]ledgerapp.UnitResponse, error) {
	args := m.Called(ctx, tenantID, actorID, repairLineID, reason)
	if r := args.Get(0); r != nil {
		return r.([]ledgerapp.UnitResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockCountService struct {
	mock.Mock
}

func (m *mockCountService) StartSession(ctx context.Context, tenantID, actorID uuid.UUID, cmd ledgerapp.StartSessionCommand) (*ledgerapp.CountSessionResponse, error) {
	args := m.Called(ctx, tenantID, actorID, cmd)
	if r := args.Get(0); r != nil {
		return r.(*ledgerapp.CountSessionResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCountService) RecordCount(ctx context.Context, tenantID uuid.UUID, cmd ledgerapp.RecordCountCommand) (*ledgerapp.CountLineResponse, error) {
	args := m.Called(ctx, tenantID, cmd)
	if r := args.Get(0); r != nil {
		return r.(*ledgerapp.CountLineResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCountService) Finalize(ctx context.Context, tenantID, actorID, sessionID uuid.UUID, notes string) (*ledgerapp.CountSessionResponse, error) {
	args := m.Called(ctx, tenantID, actorID, sessionID, notes)
	if r := args.Get(0); r != nil {
		return r.(*ledgerapp.CountSessionResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCountService) GetSession(ctx context.Context, tenantID, sessionID uuid.UUID) (*ledgerapp.CountSessionResponse, error) {
	args := m.Called(ctx, tenantID, sessionID)
	if r := args.Get(0); r != nil {
		return r.(*ledgerapp.CountSessionResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCountService) ListSessions(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[ledgerapp.CountSessionResponse], error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(shared.Paginated[ledgerapp.CountSessionResponse]), args.Error(1)
}

type mockQueryReader struct {
	mock.Mock
}

func (m *mockQueryReader) QuantityOnHand(ctx context.Context, tenantID, productID uuid.UUID, locationID *uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, productID, locationID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockQueryReader) GetUnit(ctx context.Context, tenantID, unitID uuid.UUID) (*ledgerapp.UnitResponse, error) {
	args := m.Called(ctx, tenantID, unitID)
	if r := args.Get(0); r != nil {
		return r.(*ledgerapp.UnitResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockQueryReader) GetUnitBySerial(ctx context.Context, tenantID uuid.UUID, serial string) (*ledgerapp.UnitResponse, error) {
	args := m.Called(ctx, tenantID, serial)
	if r := args.Get(0); r != nil {
		return r.(*ledgerapp.UnitResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockQueryReader) ListUnits(ctx context.Context, tenantID uuid.UUID, filter ledger.UnitFilter) (shared.Paginated[ledgerapp.UnitResponse], error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(shared.Paginated[ledgerapp.UnitResponse]), args.Error(1)
}

func (m *mockQueryReader) ListMovements(ctx context.Context, tenantID uuid.UUID, filter ledger.MovementFilter) (shared.Paginated[ledgerapp.MovementResponse], error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(shared.Paginated[ledgerapp.MovementResponse]), args.Error(1)
}
