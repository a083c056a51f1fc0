package ledger

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shopledger/backend/internal/domain/catalog"
	"github.com/shopledger/backend/internal/domain/ledger"
	"github.com/shopledger/backend/internal/domain/location"
	"github.com/shopledger/backend/internal/domain/shared"
)

// Reference types linking movements to the business documents that caused them
const (
	RefTypeSale         = "sale"
	RefTypeRepairLine   = "repair_line"
	RefTypeReturn       = "return"
	RefTypeAssembly     = "assembly"
	RefTypeCountSession = "count_session"
)

// StockEngine owns every mutation of the stock ledger. Each operation
// validates its preconditions, mutates the affected units and appends the
// matching movement rows inside one transaction. Operations with an *In
// suffix join a caller-supplied transaction; the plain variants open their
// own scope.
type StockEngine struct {
	scope     TransactionScope
	products  catalog.ProductReader
	locations location.LocationReader
	logger    *zap.Logger
}

// NewStockEngine creates a new StockEngine
func NewStockEngine(
	scope TransactionScope,
	products catalog.ProductReader,
	locations location.LocationReader,
	logger *zap.Logger,
) *StockEngine {
	return &StockEngine{
		scope:     scope,
		products:  products,
		locations: locations,
		logger:    logger,
	}
}

// Scope exposes the engine's transaction scope so outer business
// operations can wrap several ledger calls in one transaction
func (e *StockEngine) Scope() TransactionScope {
	return e.scope
}

func (e *StockEngine) resolveProduct(ctx context.Context, tenantID, productID uuid.UUID) (*catalog.Product, error) {
	product, err := e.products.Get(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (e *StockEngine) resolveActiveLocation(ctx context.Context, tenantID, locationID uuid.UUID) (*location.Location, error) {
	loc, err := e.locations.Get(ctx, tenantID, locationID)
	if err != nil {
		return nil, err
	}
	if !loc.Active {
		return nil, shared.NewDomainError("BAD_REQUEST",
			fmt.Sprintf("Location %s is inactive", loc.Code))
	}
	return loc, nil
}

// AddStock brings lot-based stock in, opening its own transaction
func (e *StockEngine) AddStock(ctx context.Context, tenantID, actorID uuid.UUID, cmd AddStockCommand) (*UnitResponse, error) {
	var result *UnitResponse
	err := e.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		r, err := e.AddStockIn(ctx, repos, tenantID, actorID, cmd)
		result = r
		return err
	})
	return result, err
}

// AddStockIn brings lot-based stock in within the caller's transaction
func (e *StockEngine) AddStockIn(ctx context.Context, repos TransactionalRepositories, tenantID, actorID uuid.UUID, cmd AddStockCommand) (*UnitResponse, error) {
	if !cmd.Quantity.IsPositive() {
		return nil, shared.NewDomainError("BAD_REQUEST", "Intake quantity must be positive")
	}
	if cmd.UnitCost.IsNegative() {
		return nil, shared.NewDomainError("BAD_REQUEST", "Unit cost cannot be negative")
	}

	product, err := e.resolveProduct(ctx, tenantID, cmd.ProductID)
	if err != nil {
		return nil, err
	}
	if product.TracksSerial {
		return nil, shared.NewDomainError("BAD_REQUEST",
			fmt.Sprintf("Product %s tracks serials, use serialized intake", product.SKU))
	}
	if _, err := e.resolveActiveLocation(ctx, tenantID, cmd.LocationID); err != nil {
		return nil, err
	}

	lot, err := repos.Units().FindOrCreateLot(ctx, tenantID, cmd.ProductID, cmd.LocationID, cmd.UnitCost, cmd.Condition)
	if err != nil {
		return nil, err
	}

	before := lot.Quantity
	if err := lot.Increase(cmd.Quantity); err != nil {
		return nil, err
	}
	if err := repos.Units().SaveWithLock(ctx, lot); err != nil {
		return nil, err
	}

	movement := ledger.NewMovementRecord(tenantID, cmd.ProductID, actorID, ledger.KindIntake, cmd.Quantity).
		WithUnit(lot.ID, before, lot.Quantity).
		WithLocations(nil, &cmd.LocationID).
		WithCost(lot.UnitCost).
		WithNote(cmd.Note)
	if err := repos.Movements().Record(ctx, movement); err != nil {
		return nil, err
	}

	resp := ToUnitResponse(lot)
	return &resp, nil
}

// AddSerializedUnit brings one serial-tracked item into stock
func (e *StockEngine) AddSerializedUnit(ctx context.Context, tenantID, actorID uuid.UUID, cmd AddSerializedUnitCommand) (*UnitResponse, error) {
	var result *UnitResponse
	err := e.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		r, err := e.AddSerializedUnitIn(ctx, repos, tenantID, actorID, cmd)
		result = r
		return err
	})
	return result, err
}

// AddSerializedUnitIn brings one serial-tracked item into stock within the caller's transaction
func (e *StockEngine) AddSerializedUnitIn(ctx context.Context, repos TransactionalRepositories, tenantID, actorID uuid.UUID, cmd AddSerializedUnitCommand) (*UnitResponse, error) {
	product, err := e.resolveProduct(ctx, tenantID, cmd.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.TracksSerial {
		return nil, shared.NewDomainError("BAD_REQUEST",
			fmt.Sprintf("Product %s does not track serials, use lot intake", product.SKU))
	}
	if _, err := e.resolveActiveLocation(ctx, tenantID, cmd.LocationID); err != nil {
		return nil, err
	}

	// Serials are unique across the whole tenant, not per location
	existing, err := repos.Units().FindBySerial(ctx, tenantID, cmd.Serial)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainError("CONFLICT",
			fmt.Sprintf("Serial %s already exists in inventory", cmd.Serial))
	}

	unit, err := ledger.NewSerializedUnit(tenantID, cmd.ProductID, cmd.LocationID, cmd.Serial, cmd.UnitCost, cmd.Condition)
	if err != nil {
		return nil, err
	}
	unit.Notes = cmd.Note
	if err := repos.Units().Save(ctx, unit); err != nil {
		return nil, err
	}

	movement := ledger.NewMovementRecord(tenantID, cmd.ProductID, actorID, ledger.KindIntake, decimal.NewFromInt(1)).
		WithUnit(unit.ID, decimal.Zero, unit.Quantity).
		WithLocations(nil, &cmd.LocationID).
		WithCost(unit.UnitCost).
		WithNote(cmd.Note)
	if err := repos.Movements().Record(ctx, movement); err != nil {
		return nil, err
	}

	resp := ToUnitResponse(unit)
	return &resp, nil
}

// AdjustStock applies a signed manual correction to lot stock
func (e *StockEngine) AdjustStock(ctx context.Context, tenantID, actorID uuid.UUID, cmd AdjustStockCommand) (*UnitResponse, error) {
	var result *UnitResponse
	err := e.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		r, err := e.AdjustStockIn(ctx, repos, tenantID, actorID, cmd)
		result = r
		return err
	})
	return result, err
}

// AdjustStockIn applies a signed manual correction within the caller's transaction
func (e *StockEngine) AdjustStockIn(ctx context.Context, repos TransactionalRepositories, tenantID, actorID uuid.UUID, cmd AdjustStockCommand) (*UnitResponse, error) {
	return e.applyAdjustment(ctx, repos, tenantID, actorID, cmd, ledger.KindAdjustment, "", "")
}

// applyAdjustment is shared by manual adjustment and count finalization;
// only the movement kind and reference differ.
func (e *StockEngine) applyAdjustment(ctx context.Context, repos TransactionalRepositories, tenantID, actorID uuid.UUID, cmd AdjustStockCommand, kind ledger.MovementKind, refType, refID string) (*UnitResponse, error) {
	if cmd.Delta.IsZero() {
		return nil, shared.NewDomainError("BAD_REQUEST", "Adjustment delta cannot be zero")
	}

	product, err := e.resolveProduct(ctx, tenantID, cmd.ProductID)
	if err != nil {
		return nil, err
	}
	if product.TracksSerial {
		return nil, shared.NewDomainError("BAD_REQUEST",
			fmt.Sprintf("Product %s tracks serials, adjust via status transitions", product.SKU))
	}
	if _, err := e.resolveActiveLocation(ctx, tenantID, cmd.LocationID); err != nil {
		return nil, err
	}

	lot, err := repos.Units().FindOldestLot(ctx, tenantID, cmd.ProductID, cmd.LocationID)
	if err != nil {
		if !isNotFound(err) {
			return nil, err
		}
		if cmd.Delta.IsNegative() {
			return nil, shared.NewDomainError("INSUFFICIENT_STOCK",
				fmt.Sprintf("No stock of product %s at the location to reduce", product.SKU))
		}
		// Positive correction with no existing lot: create one at the
		// product's default cost so administrators can fix under-counted
		// stock without knowing historical cost.
		lot, err = repos.Units().FindOrCreateLot(ctx, tenantID, cmd.ProductID, cmd.LocationID, product.DefaultUnitCost, ledger.ConditionNew)
		if err != nil {
			return nil, err
		}
	}

	before := lot.Quantity
	if cmd.Delta.IsPositive() {
		err = lot.Increase(cmd.Delta)
	} else {
		err = lot.Decrease(cmd.Delta.Neg())
	}
	if err != nil {
		return nil, err
	}
	if err := repos.Units().SaveWithLock(ctx, lot); err != nil {
		return nil, err
	}

	movement := ledger.NewMovementRecord(tenantID, cmd.ProductID, actorID, kind, cmd.Delta).
		WithUnit(lot.ID, before, lot.Quantity).
		WithLocations(nil, &cmd.LocationID).
		WithCost(lot.UnitCost).
		WithReference(refType, refID).
		WithNote(cmd.Reason)
	if err := repos.Movements().Record(ctx, movement); err != nil {
		return nil, err
	}

	resp := ToUnitResponse(lot)
	return &resp, nil
}

// TransferStock moves stock between two locations as an atomic pair
func (e *StockEngine) TransferStock(ctx context.Context, tenantID, actorID uuid.UUID, cmd TransferStockCommand) (*TransferResult, error) {
	var result *TransferResult
	err := e.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		r, err := e.TransferStockIn(ctx, repos, tenantID, actorID, cmd)
		result = r
		return err
	})
	return result, err
}

// TransferStockIn moves stock between two locations within the caller's transaction
func (e *StockEngine) TransferStockIn(ctx context.Context, repos TransactionalRepositories, tenantID, actorID uuid.UUID, cmd TransferStockCommand) (*TransferResult, error) {
	if cmd.From == cmd.To {
		return nil, shared.NewDomainError("BAD_REQUEST", "Source and destination locations must differ")
	}
	if (cmd.Quantity == nil) == (cmd.Serial == nil) {
		return nil, shared.NewDomainError("BAD_REQUEST", "Provide exactly one of quantity or serial")
	}

	if _, err := e.resolveProduct(ctx, tenantID, cmd.ProductID); err != nil {
		return nil, err
	}
	if _, err := e.resolveActiveLocation(ctx, tenantID, cmd.From); err != nil {
		return nil, err
	}
	if _, err := e.resolveActiveLocation(ctx, tenantID, cmd.To); err != nil {
		return nil, err
	}

	if cmd.Serial != nil {
		return e.transferSerialized(ctx, repos, tenantID, actorID, cmd)
	}
	return e.transferLot(ctx, repos, tenantID, actorID, cmd)
}

func (e *StockEngine) transferSerialized(ctx context.Context, repos TransactionalRepositories, tenantID, actorID uuid.UUID, cmd TransferStockCommand) (*TransferResult, error) {
	unit, err := repos.Units().FindBySerial(ctx, tenantID, *cmd.Serial)
	if err != nil {
		return nil, err
	}
	if unit.ProductID != cmd.ProductID {
		return nil, shared.NewDomainError("BAD_REQUEST",
			fmt.Sprintf("Serial %s belongs to a different product", *cmd.Serial))
	}
	if unit.LocationID != cmd.From || !unit.IsAvailable() {
		return nil, shared.NewDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("Serial %s is not available at the source location", *cmd.Serial))
	}

	if err := unit.MoveTo(cmd.To); err != nil {
		return nil, err
	}
	if err := repos.Units().SaveWithLock(ctx, unit); err != nil {
		return nil, err
	}

	one := decimal.NewFromInt(1)
	out := ledger.NewMovementRecord(tenantID, cmd.ProductID, actorID, ledger.KindTransferOut, one.Neg()).
		WithUnit(unit.ID, one, one).
		WithLocations(&cmd.From, &cmd.To).
		WithCost(unit.UnitCost).
		WithNote(cmd.Note)
	if err := repos.Movements().Record(ctx, out); err != nil {
		return nil, err
	}
	in := ledger.NewMovementRecord(tenantID, cmd.ProductID, actorID, ledger.KindTransferIn, one).
		WithUnit(unit.ID, one, one).
		WithLocations(&cmd.From, &cmd.To).
		WithCost(unit.UnitCost).
		WithNote(cmd.Note)
	if err := repos.Movements().Record(ctx, in); err != nil {
		return nil, err
	}

	resp := ToUnitResponse(unit)
	return &TransferResult{Source: resp, Destination: resp}, nil
}

func (e *StockEngine) transferLot(ctx context.Context, repos TransactionalRepositories, tenantID, actorID uuid.UUID, cmd TransferStockCommand) (*TransferResult, error) {
	qty := *cmd.Quantity
	if !qty.IsPositive() {
		return nil, shared.NewDomainError("BAD_REQUEST", "Transfer quantity must be positive")
	}

	source, err := repos.Units().FindOldestWithQuantity(ctx, tenantID, cmd.ProductID, cmd.From, qty)
	if err != nil {
		return nil, err
	}

	sourceBefore := source.Quantity
	if err := source.Decrease(qty); err != nil {
		return nil, err
	}
	if err := repos.Units().SaveWithLock(ctx, source); err != nil {
		return nil, err
	}

	// The destination lot carries over the source's cost and condition so
	// cost layers survive the move
	dest, err := repos.Units().FindOrCreateLot(ctx, tenantID, cmd.ProductID, cmd.To, source.UnitCost, source.Condition)
	if err != nil {
		return nil, err
	}
	destBefore := dest.Quantity
	if err := dest.Increase(qty); err != nil {
		return nil, err
	}
	if err := repos.Units().SaveWithLock(ctx, dest); err != nil {
		return nil, err
	}

	out := ledger.NewMovementRecord(tenantID, cmd.ProductID, actorID, ledger.KindTransferOut, qty.Neg()).
		WithUnit(source.ID, sourceBefore, source.Quantity).
		WithLocations(&cmd.From, &cmd.To).
		WithCost(source.UnitCost).
		WithNote(cmd.Note)
	if err := repos.Movements().Record(ctx, out); err != nil {
		return nil, err
	}
	in := ledger.NewMovementRecord(tenantID, cmd.ProductID, actorID, ledger.KindTransferIn, qty).
		WithUnit(dest.ID, destBefore, dest.Quantity).
		WithLocations(&cmd.From, &cmd.To).
		WithCost(dest.UnitCost).
		WithNote(cmd.Note)
	if err := repos.Movements().Record(ctx, in); err != nil {
		return nil, err
	}

	return &TransferResult{Source: ToUnitResponse(source), Destination: ToUnitResponse(dest)}, nil
}

// CommitForConsumption commits stock for a finalized sale or repair line
func (e *StockEngine) CommitForConsumption(ctx context.Context, tenantID, actorID uuid.UUID, cmd ConsumeStockCommand) (*ConsumptionResult, error) {
	var result *ConsumptionResult
	err := e.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		r, err := e.CommitForConsumptionIn(ctx, repos, tenantID, actorID, cmd)
		result = r
		return err
	})
	return result, err
}

// CommitForConsumptionIn commits stock within the caller's transaction,
// returning the consumed unit and its cost at consumption time
func (e *StockEngine) CommitForConsumptionIn(ctx context.Context, repos TransactionalRepositories, tenantID, actorID uuid.UUID, cmd ConsumeStockCommand) (*ConsumptionResult, error) {
	if !cmd.Quantity.IsPositive() {
		return nil, shared.NewDomainError("BAD_REQUEST", "Consumption quantity must be positive")
	}
	if cmd.ReferenceID == "" {
		return nil, shared.NewDomainError("BAD_REQUEST", "Consumption requires a business document reference")
	}

	product, err := e.resolveProduct(ctx, tenantID, cmd.ProductID)
	if err != nil {
		return nil, err
	}

	targetStatus := cmd.TargetStatus
	if targetStatus == "" {
		targetStatus = ledger.StatusSold
	}

	var unit *ledger.InventoryUnit
	if cmd.UnitID != nil {
		unit, err = repos.Units().FindByIDForUpdate(ctx, tenantID, *cmd.UnitID)
		if err != nil {
			return nil, err
		}
		if unit.ProductID != cmd.ProductID {
			return nil, shared.NewDomainError("BAD_REQUEST", "Unit belongs to a different product")
		}
		if unit.LocationID != cmd.LocationID {
			return nil, shared.NewDomainError("BAD_REQUEST", "Unit is not at the given location")
		}
		if !unit.IsAvailable() {
			return nil, shared.NewDomainError("CONFLICT",
				fmt.Sprintf("Unit is already %s", unit.Status))
		}
	} else {
		if product.TracksSerial {
			return nil, shared.NewDomainError("BAD_REQUEST",
				fmt.Sprintf("Product %s tracks serials, consumption requires an explicit unit", product.SKU))
		}
		unit, err = repos.Units().FindOldestWithQuantity(ctx, tenantID, cmd.ProductID, cmd.LocationID, cmd.Quantity)
		if err != nil {
			return nil, err
		}
	}

	before := unit.Quantity
	if unit.IsSerialized() {
		if !cmd.Quantity.Equal(decimal.NewFromInt(1)) {
			return nil, shared.NewDomainError("BAD_REQUEST", "Serialized consumption quantity must be 1")
		}
		if err := unit.ConsumeSerialized(targetStatus); err != nil {
			return nil, err
		}
	} else {
		if err := unit.Decrease(cmd.Quantity); err != nil {
			return nil, err
		}
	}
	if err := repos.Units().SaveWithLock(ctx, unit); err != nil {
		return nil, err
	}

	movement := ledger.NewMovementRecord(tenantID, cmd.ProductID, actorID, ledger.KindConsumption, cmd.Quantity.Neg()).
		WithUnit(unit.ID, before, unit.Quantity).
		WithLocations(&cmd.LocationID, nil).
		WithCost(unit.UnitCost).
		WithReference(cmd.ReferenceType, cmd.ReferenceID)
	if err := repos.Movements().Record(ctx, movement); err != nil {
		return nil, err
	}

	return &ConsumptionResult{
		UnitID:   unit.ID,
		UnitCost: unit.UnitCost,
		Quantity: cmd.Quantity,
	}, nil
}

// ReverseConsumption restores every unit consumed under a reference.
// There is no replay guard: reversing the same reference twice restores
// stock twice, so callers must gate this behind their own state machine.
func (e *StockEngine) ReverseConsumption(ctx context.Context, tenantID, actorID uuid.UUID, cmd ReverseConsumptionCommand) ([]UnitResponse, error) {
	var result []UnitResponse
	err := e.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		r, err := e.ReverseConsumptionIn(ctx, repos, tenantID, actorID, cmd)
		result = r
		return err
	})
	return result, err
}

// ReverseConsumptionIn restores consumed units within the caller's transaction
func (e *StockEngine) ReverseConsumptionIn(ctx context.Context, repos TransactionalRepositories, tenantID, actorID uuid.UUID, cmd ReverseConsumptionCommand) ([]UnitResponse, error) {
	if cmd.ReferenceID == "" {
		return nil, shared.NewDomainError("BAD_REQUEST", "Reversal requires a business document reference")
	}

	consumptions, err := repos.Movements().FindByReference(ctx, tenantID, ledger.KindConsumption, cmd.ReferenceType, cmd.ReferenceID)
	if err != nil {
		return nil, err
	}
	if len(consumptions) == 0 {
		return nil, shared.NewDomainError("NOT_FOUND",
			fmt.Sprintf("No consumption found for reference %s/%s", cmd.ReferenceType, cmd.ReferenceID))
	}

	restored := make([]UnitResponse, 0, len(consumptions))
	for _, consumption := range consumptions {
		if consumption.UnitID == nil {
			continue
		}
		unit, err := repos.Units().FindByIDForUpdate(ctx, tenantID, *consumption.UnitID)
		if err != nil {
			return nil, err
		}

		qty := consumption.Delta.Neg()
		before := unit.Quantity
		if unit.IsSerialized() {
			if err := unit.RestoreSerialized(); err != nil {
				return nil, err
			}
		} else {
			if err := unit.Increase(qty); err != nil {
				return nil, err
			}
		}
		if err := repos.Units().SaveWithLock(ctx, unit); err != nil {
			return nil, err
		}

		movement := ledger.NewMovementRecord(tenantID, unit.ProductID, actorID, ledger.KindConsumptionReversal, qty).
			WithUnit(unit.ID, before, unit.Quantity).
			WithLocations(nil, &unit.LocationID).
			WithCost(unit.UnitCost).
			WithReference(cmd.ReferenceType, cmd.ReferenceID).
			WithNote(cmd.Reason)
		if err := repos.Movements().Record(ctx, movement); err != nil {
			return nil, err
		}

		restored = append(restored, ToUnitResponse(unit))
	}
	return restored, nil
}

// Restock reintroduces previously consumed goods, possibly at a different
// condition or location than the origin
func (e *StockEngine) Restock(ctx context.Context, tenantID, actorID uuid.UUID, cmd RestockCommand) (*UnitResponse, error) {
	var result *UnitResponse
	err := e.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		r, err := e.RestockIn(ctx, repos, tenantID, actorID, cmd)
		result = r
		return err
	})
	return result, err
}

// RestockIn reintroduces previously consumed goods within the caller's transaction
func (e *StockEngine) RestockIn(ctx context.Context, repos TransactionalRepositories, tenantID, actorID uuid.UUID, cmd RestockCommand) (*UnitResponse, error) {
	if !cmd.Quantity.IsPositive() {
		return nil, shared.NewDomainError("BAD_REQUEST", "Restock quantity must be positive")
	}
	if _, err := e.resolveActiveLocation(ctx, tenantID, cmd.DestinationLocationID); err != nil {
		return nil, err
	}

	original, err := repos.Units().FindByIDForUpdate(ctx, tenantID, cmd.UnitID)
	if err != nil {
		return nil, err
	}

	if original.IsSerialized() {
		if !cmd.Quantity.Equal(decimal.NewFromInt(1)) {
			return nil, shared.NewDomainError("BAD_REQUEST", "Serialized restock quantity must be 1")
		}
		before := original.Quantity
		if err := original.RestockSerialized(cmd.NewCondition); err != nil {
			return nil, err
		}
		if original.LocationID != cmd.DestinationLocationID {
			original.LocationID = cmd.DestinationLocationID
		}
		if err := repos.Units().SaveWithLock(ctx, original); err != nil {
			return nil, err
		}

		movement := ledger.NewMovementRecord(tenantID, original.ProductID, actorID, ledger.KindRestock, decimal.NewFromInt(1)).
			WithUnit(original.ID, before, original.Quantity).
			WithLocations(nil, &cmd.DestinationLocationID).
			WithCost(original.UnitCost).
			WithReference(cmd.ReferenceType, cmd.ReferenceID)
		if err := repos.Movements().Record(ctx, movement); err != nil {
			return nil, err
		}

		resp := ToUnitResponse(original)
		return &resp, nil
	}

	// Lot path: the returned goods land in the lot matching the original
	// cost and the new condition at the destination
	lot, err := repos.Units().FindOrCreateLot(ctx, tenantID, original.ProductID, cmd.DestinationLocationID, original.UnitCost, cmd.NewCondition)
	if err != nil {
		return nil, err
	}
	before := lot.Quantity
	if err := lot.Increase(cmd.Quantity); err != nil {
		return nil, err
	}
	if err := repos.Units().SaveWithLock(ctx, lot); err != nil {
		return nil, err
	}

	movement := ledger.NewMovementRecord(tenantID, original.ProductID, actorID, ledger.KindRestock, cmd.Quantity).
		WithUnit(lot.ID, before, lot.Quantity).
		WithLocations(nil, &cmd.DestinationLocationID).
		WithCost(lot.UnitCost).
		WithReference(cmd.ReferenceType, cmd.ReferenceID)
	if err := repos.Movements().Record(ctx, movement); err != nil {
		return nil, err
	}

	resp := ToUnitResponse(lot)
	return &resp, nil
}

// Assemble builds composite units by consuming component stock and
// crediting the composite at the blended component cost
func (e *StockEngine) Assemble(ctx context.Context, tenantID, actorID uuid.UUID, cmd AssembleCommand) (*UnitResponse, error) {
	var result *UnitResponse
	err := e.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		r, err := e.AssembleIn(ctx, repos, tenantID, actorID, cmd)
		result = r
		return err
	})
	return result, err
}

// AssembleIn builds composite units within the caller's transaction
func (e *StockEngine) AssembleIn(ctx context.Context, repos TransactionalRepositories, tenantID, actorID uuid.UUID, cmd AssembleCommand) (*UnitResponse, error) {
	if !cmd.Quantity.IsPositive() {
		return nil, shared.NewDomainError("BAD_REQUEST", "Assembly quantity must be positive")
	}

	product, err := e.resolveProduct(ctx, tenantID, cmd.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsComposite || !product.HasComponents() {
		return nil, shared.NewDomainError("BAD_REQUEST",
			fmt.Sprintf("Product %s is not a composite with components", product.SKU))
	}
	if product.TracksSerial {
		return nil, shared.NewDomainError("BAD_REQUEST", "Serialized composite products are unsupported")
	}
	if _, err := e.resolveActiveLocation(ctx, tenantID, cmd.TargetLocationID); err != nil {
		return nil, err
	}
	if _, err := e.resolveActiveLocation(ctx, tenantID, cmd.ComponentSourceLocationID); err != nil {
		return nil, err
	}

	referenceID := cmd.ReferenceID
	if referenceID == "" {
		referenceID = uuid.New().String()
	}

	components := make([]catalog.Component, len(product.Components))
	copy(components, product.Components)
	sort.Slice(components, func(i, j int) bool { return components[i].Position < components[j].Position })

	// Consume each component under the single-lot-sufficiency rule; any
	// shortage fails the whole operation and rolls the transaction back
	totalCost := decimal.Zero
	for _, component := range components {
		componentProduct, err := e.resolveProduct(ctx, tenantID, component.ComponentProductID)
		if err != nil {
			return nil, err
		}
		if componentProduct.TracksSerial {
			return nil, shared.NewDomainError("BAD_REQUEST",
				fmt.Sprintf("Composite component %s is serialized, assembly is unsupported", componentProduct.SKU))
		}

		need := component.QuantityPerUnit.Mul(cmd.Quantity)
		lot, err := repos.Units().FindOldestWithQuantity(ctx, tenantID, component.ComponentProductID, cmd.ComponentSourceLocationID, need)
		if err != nil {
			return nil, err
		}

		before := lot.Quantity
		if err := lot.Decrease(need); err != nil {
			return nil, err
		}
		if err := repos.Units().SaveWithLock(ctx, lot); err != nil {
			return nil, err
		}
		totalCost = totalCost.Add(lot.UnitCost.Mul(need))

		movement := ledger.NewMovementRecord(tenantID, component.ComponentProductID, actorID, ledger.KindAssemblyOut, need.Neg()).
			WithUnit(lot.ID, before, lot.Quantity).
			WithLocations(&cmd.ComponentSourceLocationID, nil).
			WithCost(lot.UnitCost).
			WithReference(RefTypeAssembly, referenceID)
		if err := repos.Movements().Record(ctx, movement); err != nil {
			return nil, err
		}
	}

	unitCost := totalCost.Div(cmd.Quantity).Round(2)
	composite, err := repos.Units().FindOrCreateLot(ctx, tenantID, cmd.ProductID, cmd.TargetLocationID, unitCost, ledger.ConditionNew)
	if err != nil {
		return nil, err
	}
	before := composite.Quantity
	if err := composite.Increase(cmd.Quantity); err != nil {
		return nil, err
	}
	if err := repos.Units().SaveWithLock(ctx, composite); err != nil {
		return nil, err
	}

	movement := ledger.NewMovementRecord(tenantID, cmd.ProductID, actorID, ledger.KindAssemblyIn, cmd.Quantity).
		WithUnit(composite.ID, before, composite.Quantity).
		WithLocations(nil, &cmd.TargetLocationID).
		WithCost(unitCost).
		WithReference(RefTypeAssembly, referenceID)
	if err := repos.Movements().Record(ctx, movement); err != nil {
		return nil, err
	}

	resp := ToUnitResponse(composite)
	return &resp, nil
}

// Disassemble breaks composite units back into component stock. Components
// are credited at their own default cost, since the blended assembly cost
// is no longer recoverable per component.
func (e *StockEngine) Disassemble(ctx context.Context, tenantID, actorID uuid.UUID, cmd DisassembleCommand) ([]UnitResponse, error) {
	var result []UnitResponse
	err := e.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		r, err := e.DisassembleIn(ctx, repos, tenantID, actorID, cmd)
		result = r
		return err
	})
	return result, err
}

// DisassembleIn breaks composite units within the caller's transaction,
// returning the credited component lots
func (e *StockEngine) DisassembleIn(ctx context.Context, repos TransactionalRepositories, tenantID, actorID uuid.UUID, cmd DisassembleCommand) ([]UnitResponse, error) {
	if !cmd.Quantity.IsPositive() {
		return nil, shared.NewDomainError("BAD_REQUEST", "Disassembly quantity must be positive")
	}
	if _, err := e.resolveActiveLocation(ctx, tenantID, cmd.ComponentDestinationLocationID); err != nil {
		return nil, err
	}

	composite, err := repos.Units().FindByIDForUpdate(ctx, tenantID, cmd.UnitID)
	if err != nil {
		return nil, err
	}
	if composite.IsSerialized() {
		return nil, shared.NewDomainError("BAD_REQUEST", "Serialized units cannot be disassembled")
	}
	if !composite.IsAvailable() {
		return nil, shared.NewDomainError("CONFLICT",
			fmt.Sprintf("Unit is already %s", composite.Status))
	}

	product, err := e.resolveProduct(ctx, tenantID, composite.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsComposite || !product.HasComponents() {
		return nil, shared.NewDomainError("BAD_REQUEST",
			fmt.Sprintf("Product %s is not a composite with components", product.SKU))
	}

	referenceID := cmd.ReferenceID
	if referenceID == "" {
		referenceID = uuid.New().String()
	}

	before := composite.Quantity
	if err := composite.Decrease(cmd.Quantity); err != nil {
		return nil, err
	}
	if err := repos.Units().SaveWithLock(ctx, composite); err != nil {
		return nil, err
	}

	out := ledger.NewMovementRecord(tenantID, composite.ProductID, actorID, ledger.KindDisassemblyOut, cmd.Quantity.Neg()).
		WithUnit(composite.ID, before, composite.Quantity).
		WithLocations(&composite.LocationID, nil).
		WithCost(composite.UnitCost).
		WithReference(RefTypeAssembly, referenceID)
	if err := repos.Movements().Record(ctx, out); err != nil {
		return nil, err
	}

	components := make([]catalog.Component, len(product.Components))
	copy(components, product.Components)
	sort.Slice(components, func(i, j int) bool { return components[i].Position < components[j].Position })

	credited := make([]UnitResponse, 0, len(components))
	for _, component := range components {
		componentProduct, err := e.resolveProduct(ctx, tenantID, component.ComponentProductID)
		if err != nil {
			return nil, err
		}

		credit := component.QuantityPerUnit.Mul(cmd.Quantity)
		lot, err := repos.Units().FindOrCreateLot(ctx, tenantID, component.ComponentProductID, cmd.ComponentDestinationLocationID, componentProduct.DefaultUnitCost, ledger.ConditionDisassembled)
		if err != nil {
			return nil, err
		}
		lotBefore := lot.Quantity
		if err := lot.Increase(credit); err != nil {
			return nil, err
		}
		if err := repos.Units().SaveWithLock(ctx, lot); err != nil {
			return nil, err
		}

		in := ledger.NewMovementRecord(tenantID, component.ComponentProductID, actorID, ledger.KindDisassemblyIn, credit).
			WithUnit(lot.ID, lotBefore, lot.Quantity).
			WithLocations(nil, &cmd.ComponentDestinationLocationID).
			WithCost(lot.UnitCost).
			WithReference(RefTypeAssembly, referenceID)
		if err := repos.Movements().Record(ctx, in); err != nil {
			return nil, err
		}

		credited = append(credited, ToUnitResponse(lot))
	}
	return credited, nil
}

// ConsumeRepairPart consumes one part against a repair line. Quantity
// defaults to 1, matching the common serialized-part case.
func (e *StockEngine) ConsumeRepairPart(ctx context.Context, tenantID, actorID uuid.UUID, cmd RepairPartCommand) (*ConsumptionResult, error) {
	if cmd.RepairLineID == "" {
		return nil, shared.NewDomainError("BAD_REQUEST", "Repair part consumption requires a repair line id")
	}
	qty := decimal.NewFromInt(1)
	if cmd.Quantity != nil {
		qty = *cmd.Quantity
	}
	return e.CommitForConsumption(ctx, tenantID, actorID, ConsumeStockCommand{
		ProductID:     cmd.ProductID,
		LocationID:    cmd.LocationID,
		Quantity:      qty,
		UnitID:        cmd.UnitID,
		TargetStatus:  ledger.StatusUsedInConsumption,
		ReferenceType: RefTypeRepairLine,
		ReferenceID:   cmd.RepairLineID,
	})
}

// ReverseRepairPart restores the stock consumed by a repair line
func (e *StockEngine) ReverseRepairPart(ctx context.Context, tenantID, actorID uuid.UUID, repairLineID, reason string) ([]UnitResponse, error) {
	return e.ReverseConsumption(ctx, tenantID, actorID, ReverseConsumptionCommand{
		ReferenceType: RefTypeRepairLine,
		ReferenceID:   repairLineID,
		Reason:        reason,
	})
}

func isNotFound(err error) bool {
	domainErr, ok := err.(*shared.DomainError)
	return ok && domainErr.Code == "NOT_FOUND"
}
