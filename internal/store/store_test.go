package store

import (
	"database/sql/driver"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bus_tracker/internal/models"
)

// newSQLiteStore opens an isolated in-memory database with the full schema.
func newSQLiteStore(t *testing.T) *GormStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return NewGormStore(db)
}

// newMockStore wires sqlmock behind the postgres dialector.
func newMockStore(t *testing.T) (*GormStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return NewGormStore(gormDB), mock
}

// Any matches any argument value.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}

type seed struct {
	org    models.Organization
	bus    models.Bus
	driver models.Driver
	user   models.User
	route  models.Route
	stop   models.Stop
}

func seedFleet(t *testing.T, s *GormStore) seed {
	t.Helper()
	db := s.DB()

	org := models.Organization{Name: "Green Valley School", Slug: uuid.NewString()}
	require.NoError(t, db.Create(&org).Error)

	route := models.Route{OrganizationID: org.ID, Name: "Morning A"}
	require.NoError(t, db.Create(&route).Error)

	stop := models.Stop{OrganizationID: org.ID, RouteID: route.ID, Name: "Main Gate", Latitude: 10, Longitude: 10, SequenceOrder: 1}
	require.NoError(t, db.Create(&stop).Error)

	bus := models.Bus{OrganizationID: org.ID, NumberPlate: "KA-01-1234", RouteID: &route.ID}
	require.NoError(t, db.Create(&bus).Error)

	driver := models.Driver{OrganizationID: org.ID, Name: "Ravi", EmployeeID: "D-1", AssignedBusID: &bus.ID}
	require.NoError(t, db.Create(&driver).Error)

	user := models.User{OrganizationID: org.ID, Name: "Asha", MemberID: "M-1"}
	require.NoError(t, db.Create(&user).Error)

	return seed{org: org, bus: bus, driver: driver, user: user, route: route, stop: stop}
}
