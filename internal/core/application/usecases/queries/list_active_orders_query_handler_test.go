package queries_test

import (
	"context"
	"testing"
	"time"

	"ordertrack/internal/adapters/out/postgres"
	"ordertrack/internal/adapters/out/postgres/snapshotcache"
	"ordertrack/internal/core/application/usecases/queries"
	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/core/domain/model/order"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tc_postgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gorm_postgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type ListActiveOrdersQueryHandlerTestSuite struct {
	suite.Suite
	container *tc_postgres.PostgresContainer
	db        *gorm.DB
	handler   queries.ListActiveOrdersQueryHandler
	cache     *snapshotcache.Cache
}

func (suite *ListActiveOrdersQueryHandlerTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tc_postgres.Run(ctx,
		"postgres:15-alpine",
		tc_postgres.WithDatabase("testdb"),
		tc_postgres.WithUsername("testuser"),
		tc_postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(gorm_postgres.Open(dsn), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	err = db.AutoMigrate(&snapshotcache.SnapshotDTO{})
	suite.Require().NoError(err)

	suite.handler = queries.NewListActiveOrdersQueryHandler(db)
	suite.cache, err = snapshotcache.NewCache(postgres.NewGormUnitOfWorkFactory(db))
	suite.Require().NoError(err)
}

func (suite *ListActiveOrdersQueryHandlerTestSuite) TearDownSuite() {
	if suite.container != nil {
		err := suite.container.Terminate(context.Background())
		suite.Require().NoError(err)
	}
}

func (suite *ListActiveOrdersQueryHandlerTestSuite) SetupTest() {
	err := suite.db.Exec("TRUNCATE TABLE order_snapshots").Error
	suite.Require().NoError(err)
}

func (suite *ListActiveOrdersQueryHandlerTestSuite) seedFlatOrder(
	customerID kernel.UUID,
	rawStatus string,
	createdAt time.Time,
) *order.Order {
	item, err := order.NewLineItem(kernel.NewUUID(), "Margherita", 12.5, 2, "")
	suite.Require().NoError(err)

	o, err := order.RestoreOrder(order.RestoreOrderParams{
		ID:           kernel.NewUUID(),
		CustomerID:   customerID,
		ProviderID:   kernel.NewUUID(),
		ProviderName: "Pizza Corner",
		Items:        []order.LineItem{item},
		DeliveryFee:  3.0,
		Address:      "10 Main St",
		CreatedAt:    createdAt,
		RawStatus:    rawStatus,
	})
	suite.Require().NoError(err)

	err = suite.cache.Put(context.Background(), o)
	suite.Require().NoError(err)
	return o
}

func (suite *ListActiveOrdersQueryHandlerTestSuite) seedParentOrder(
	customerID kernel.UUID,
	createdAt time.Time,
) *order.Order {
	parentID := kernel.NewUUID()

	item, err := order.NewLineItem(kernel.NewUUID(), "Ramen", 14.0, 1, "")
	suite.Require().NoError(err)
	sub, err := order.RestoreSubOrder(order.RestoreSubOrderParams{
		ID:           kernel.NewUUID(),
		ParentID:     parentID,
		ProviderID:   kernel.NewUUID(),
		ProviderName: "Noodle House",
		Items:        []order.LineItem{item},
		RawStatus:    "preparing",
	})
	suite.Require().NoError(err)

	parent, err := order.RestoreOrder(order.RestoreOrderParams{
		ID:          parentID,
		CustomerID:  customerID,
		IsParent:    true,
		SubOrders:   []order.SubOrder{sub},
		DeliveryFee: 5.0,
		Address:     "10 Main St",
		CreatedAt:   createdAt,
		RawStatus:   "pending",
	})
	suite.Require().NoError(err)

	err = suite.cache.Put(context.Background(), parent)
	suite.Require().NoError(err)
	return parent
}

func (suite *ListActiveOrdersQueryHandlerTestSuite) TestHandle_EmptyDatabase_ReturnsEmptySlice() {
	query := queries.NewListActiveOrdersQuery()

	result, err := suite.handler.Handle(context.Background(), query)

	suite.Require().NoError(err)
	suite.NotNil(result)
	suite.Empty(result)
}

func (suite *ListActiveOrdersQueryHandlerTestSuite) TestHandle_MixedStages_ReturnsOnlyActive() {
	customerID := kernel.NewUUID()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	pending := suite.seedFlatOrder(customerID, "pending", base)
	preparing := suite.seedFlatOrder(customerID, "preparing", base.Add(time.Minute))
	suite.seedFlatOrder(customerID, "delivered", base.Add(2*time.Minute))
	suite.seedFlatOrder(customerID, "cancelled", base.Add(3*time.Minute))

	query := queries.NewListActiveOrdersQuery()

	result, err := suite.handler.Handle(context.Background(), query)

	suite.Require().NoError(err)
	suite.Require().Len(result, 2)

	resultIDs := make(map[kernel.UUID]bool)
	for _, r := range result {
		resultIDs[r.ID] = true
	}
	suite.True(resultIDs[pending.ID()])
	suite.True(resultIDs[preparing.ID()])
}

func (suite *ListActiveOrdersQueryHandlerTestSuite) TestHandle_SortsNewestFirst() {
	customerID := kernel.NewUUID()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	older := suite.seedFlatOrder(customerID, "pending", base)
	newer := suite.seedFlatOrder(customerID, "pending", base.Add(time.Hour))

	query := queries.NewListActiveOrdersQuery()

	result, err := suite.handler.Handle(context.Background(), query)

	suite.Require().NoError(err)
	suite.Require().Len(result, 2)
	suite.True(result[0].ID.IsEqual(newer.ID()))
	suite.True(result[1].ID.IsEqual(older.ID()))
}

func (suite *ListActiveOrdersQueryHandlerTestSuite) TestHandle_CustomerFilter() {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	customerA := kernel.NewUUID()
	customerB := kernel.NewUUID()

	mine := suite.seedFlatOrder(customerA, "preparing", base)
	suite.seedFlatOrder(customerB, "preparing", base)

	query, err := queries.NewListActiveOrdersQueryForCustomer(customerA)
	suite.Require().NoError(err)

	result, err := suite.handler.Handle(context.Background(), query)

	suite.Require().NoError(err)
	suite.Require().Len(result, 1)
	suite.True(result[0].ID.IsEqual(mine.ID()))
	suite.True(result[0].CustomerID.IsEqual(customerA))
}

func (suite *ListActiveOrdersQueryHandlerTestSuite) TestHandle_ParentRow_FoldsSubOrders() {
	customerID := kernel.NewUUID()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	parent := suite.seedParentOrder(customerID, base)

	query := queries.NewListActiveOrdersQuery()

	result, err := suite.handler.Handle(context.Background(), query)

	suite.Require().NoError(err)
	suite.Require().Len(result, 1)

	row := result[0]
	suite.True(row.ID.IsEqual(parent.ID()))
	suite.True(row.IsParent)
	suite.Equal(order.StagePreparing, row.Stage)
	suite.Equal(1, row.ItemCount)
	suite.InDelta(19.0, row.Total, 0.001) // 14.00 items + 5.00 delivery fee
}

func (suite *ListActiveOrdersQueryHandlerTestSuite) TestHandle_InvalidQuery_ReturnsError() {
	invalidQuery := queries.ListActiveOrdersQuery{}

	result, err := suite.handler.Handle(context.Background(), invalidQuery)

	suite.Require().Error(err)
	suite.Nil(result)
	suite.Contains(err.Error(), "must be created via NewListActiveOrdersQuery constructor")
}

func (suite *ListActiveOrdersQueryHandlerTestSuite) TestHandle_ContextCancellation_ReturnsError() {
	customerID := kernel.NewUUID()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	suite.seedFlatOrder(customerID, "pending", base)

	query := queries.NewListActiveOrdersQuery()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := suite.handler.Handle(ctx, query)

	suite.Require().Error(err)
	suite.Nil(result)
}

func TestListActiveOrdersQueryHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(ListActiveOrdersQueryHandlerTestSuite))
}
