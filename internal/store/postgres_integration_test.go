// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

//go:build integration

package store_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/plugindictator/dictator/internal/store"
	"github.com/plugindictator/dictator/pkg/errutil"
)

var _ = Describe("PostgresStore", Ordered, func() {
	var (
		ctx       context.Context
		container *postgres.PostgresContainer
		connStr   string
		s         *store.PostgresStore
	)

	BeforeAll(func() {
		ctx = context.Background()

		var err error
		container, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("dictator_test"),
			postgres.WithUsername("dictator"),
			postgres.WithPassword("dictator"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second),
			),
		)
		Expect(err).NotTo(HaveOccurred())

		connStr, err = container.ConnectionString(ctx, "sslmode=disable")
		Expect(err).NotTo(HaveOccurred())

		s, err = store.ConnectPostgresStore(ctx, connStr)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		if s != nil {
			_ = s.Close()
		}
		if container != nil {
			_ = container.Terminate(ctx)
		}
	})

	It("reports an unmigrated database", func() {
		_, _, err := s.Load(ctx, "active_plugins")
		Expect(err).To(HaveOccurred())
		Expect(errutil.Code(err)).To(Equal("STORE_NOT_MIGRATED"))
	})

	It("migrates up", func() {
		m, err := store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		defer func() { _ = m.Close() }()

		Expect(m.Up()).To(Succeed())
		version, dirty, err := m.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(dirty).To(BeFalse())
		Expect(version).To(Equal(uint(2)))

		pending, err := m.Pending()
		Expect(err).NotTo(HaveOccurred())
		Expect(pending).To(BeEmpty())
	})

	It("round-trips the active plugin list", func() {
		_, ok, err := s.Load(ctx, "active_plugins")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())

		Expect(s.Save(ctx, "active_plugins", []string{"b/b.php", "a/a.php"})).To(Succeed())
		Expect(s.Save(ctx, "active_plugins", []string{"a/a.php", "c/c.php"})).To(Succeed())

		got, ok, err := s.Load(ctx, "active_plugins")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal([]string{"a/a.php", "c/c.php"}))
	})

	It("keeps reset history newest first", func() {
		base := time.Now().UTC().Truncate(time.Millisecond)
		Expect(s.RecordRun(ctx, store.Run{ID: "01A", Option: "active_plugins", Activated: []string{"a"}, Deactivated: []string{}, CreatedAt: base})).To(Succeed())
		Expect(s.RecordRun(ctx, store.Run{ID: "01B", Option: "active_plugins", Activated: []string{}, Deactivated: []string{"b"}, CreatedAt: base.Add(time.Second)})).To(Succeed())

		runs, err := s.Runs(ctx, "active_plugins", 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(runs).To(HaveLen(2))
		Expect(runs[0].ID).To(Equal("01B"))
		Expect(runs[0].Deactivated).To(Equal([]string{"b"}))
	})
})
