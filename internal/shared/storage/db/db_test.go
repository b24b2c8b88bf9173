package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return stubConn{}, nil }

type stubConn struct{}

func (stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (stubConn) Close() error                        { return nil }
func (stubConn) Begin() (driver.Tx, error)           { return nil, errors.New("not supported") }
func (stubConn) Ping(context.Context) error          { return nil }

var registerStub sync.Once

func useStubDriver(t *testing.T) {
	t.Helper()
	registerStub.Do(func() { sql.Register("dbstub", stubDriver{}) })
	prev := openDB
	openDB = func(_, dsn string) (*sql.DB, error) { return sql.Open("dbstub", dsn) }
	t.Cleanup(func() {
		openDB = prev
		resetShared()
	})
	resetShared()
}

func TestSharedReusesPool(t *testing.T) {
	useStubDriver(t)

	first, err := Shared(context.Background(), "postgres://stub", PresetOptions(ProfileLambda))
	if err != nil {
		t.Fatalf("Shared first: %v", err)
	}
	second, err := Shared(context.Background(), "postgres://stub", PresetOptions(ProfileLambda))
	if err != nil {
		t.Fatalf("Shared second: %v", err)
	}
	if first != second {
		t.Fatalf("expected the same pool")
	}
}

func TestSharedRetriesAfterFailedConnect(t *testing.T) {
	useStubDriver(t)

	var calls int32
	openDB = func(_, dsn string) (*sql.DB, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, driver.ErrBadConn
		}
		return sql.Open("dbstub", dsn)
	}

	if _, err := Shared(context.Background(), "postgres://stub", PresetOptions(ProfileServer)); err == nil {
		t.Fatalf("expected first connect to fail")
	}
	pool, err := Shared(context.Background(), "postgres://stub", PresetOptions(ProfileServer))
	if err != nil || pool == nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
}

func TestConnectRejectsEmptyURL(t *testing.T) {
	if _, err := Connect(context.Background(), "  ", PresetOptions(ProfileServer)); err == nil {
		t.Fatalf("expected error for empty url")
	}
}

func TestOptionsFromEnvOverridesPreset(t *testing.T) {
	useStubDriver(t)

	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("DB_MAX_IDLE_CONNS", "3")
	t.Setenv("DB_CONN_MAX_LIFETIME", "20m")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "45s")
	t.Setenv("DB_PING_TIMEOUT", "not-a-duration")

	opts := OptionsFromEnv(PresetOptions(ProfileMigrate))
	if opts.MaxOpenConns != 7 || opts.MaxIdleConns != 3 {
		t.Fatalf("unexpected pool sizes: %+v", opts)
	}
	if opts.ConnMaxLifetime != 20*time.Minute || opts.ConnMaxIdleTime != 45*time.Second {
		t.Fatalf("unexpected durations: %+v", opts)
	}
	if opts.PingTimeout != 5*time.Second {
		t.Fatalf("invalid override should keep preset, got %s", opts.PingTimeout)
	}

	pool, err := Connect(context.Background(), "postgres://stub", opts)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer pool.Close()
	if got := pool.Stats().MaxOpenConnections; got != 7 {
		t.Fatalf("expected MaxOpenConnections=7, got %d", got)
	}
}

func TestRuntimeProfile(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
	if RuntimeProfile() != ProfileServer {
		t.Fatalf("expected server profile outside lambda")
	}
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "actionplan-api")
	if RuntimeProfile() != ProfileLambda {
		t.Fatalf("expected lambda profile")
	}
}
