// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dictator Contributors

//go:build integration

package dictator_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	lua "github.com/yuin/gopher-lua"

	"github.com/plugindictator/dictator/internal/dictator"
	"github.com/plugindictator/dictator/internal/env"
	"github.com/plugindictator/dictator/internal/loader"
	"github.com/plugindictator/dictator/internal/logging"
	"github.com/plugindictator/dictator/internal/store"
)

var _ = Describe("Process lifecycle", func() {
	var (
		ctx    context.Context
		layout env.Layout
		dbPath string
	)

	put := func(rel, content string) {
		path := filepath.Join(layout.Root, rel)
		Expect(os.MkdirAll(filepath.Dir(path), 0o755)).To(Succeed())
		Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())
	}

	boot := func(st store.Store, inc loader.Includer) *dictator.Session {
		s, err := dictator.New(ctx, layout,
			dictator.WithLogger(logging.Discard()),
			dictator.WithStore(st),
			dictator.WithIncluder(inc),
		)
		Expect(err).NotTo(HaveOccurred())
		return s
	}

	BeforeEach(func() {
		ctx = context.Background()
		layout = env.Layout{
			Root:          GinkgoT().TempDir(),
			StylesheetDir: "wp-content/themes/child",
		}
		dbPath = filepath.Join(GinkgoT().TempDir(), "options.db")

		put("wp-content/plugins.json", `{
			"activate": {
				"seo/seo.php": {"force": true, "require": {"forms/forms.php": {}}},
				"cache/cache.php": {},
				"boot/boot.lua": {"path": "shared", "priority": 0}
			},
			"deactivate": {"debug/debug.php": {"force": true}}
		}`)
		put("wp-content/themes/child/plugins.json", `{"activate": {"cache/cache.php": {"force": true}}}`)
		put("wp-content/plugins/forms/forms.php", "")
		put("wp-content/plugins/seo/plugins.json", `{"activate": {"seo/seo.php": {"force": true}}}`)
		put("shared/boot/boot.lua", `booted = dictator.tier`)
	})

	It("dictates, loads custom path plugins and resets across processes", func() {
		st, err := store.OpenBoltStore(dbPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(st.Save(ctx, env.DefaultOptionKey, []string{"debug/debug.php", "stale/stale.php"})).To(Succeed())

		inc := loader.NewLuaIncluder(logging.Discard())
		s := boot(st, inc)

		Expect(s.Checkpoint(ctx, loader.TierMustUse)).To(Equal([]string{"boot/boot.lua"}))
		booted, ok := inc.Global("boot/boot.lua", "booted")
		Expect(ok).To(BeTrue())
		Expect(booted).To(Equal(lua.LNumber(0)))

		active, err := s.Active(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(active).To(Equal([]string{"stale/stale.php", "forms/forms.php", "seo/seo.php", "cache/cache.php"}))

		res, err := s.Reset(ctx, "ops")
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Deactivated).To(ConsistOf("debug/debug.php", "stale/stale.php"))
		inc.Close()
		Expect(st.Close()).To(Succeed())

		reopened, err := store.OpenBoltStore(dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer reopened.Close()

		second := boot(reopened, loader.NewLuaIncluder(logging.Discard()))
		mismatch, err := second.Mismatch(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(mismatch.Empty()).To(BeTrue())

		runs, err := reopened.Runs(ctx, env.DefaultOptionKey, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(runs).To(HaveLen(1))
		Expect(runs[0].ID).To(Equal(res.RunID))
		Expect(runs[0].Actor).To(Equal("ops"))
	})

	It("refuses to start after the plugins checkpoint", func() {
		_, err := dictator.New(ctx, layout,
			dictator.WithLogger(logging.Discard()),
			dictator.WithIncluder(loader.NewLuaIncluder(logging.Discard())),
			dictator.WithCheckpointProbe(func(loader.Tier) bool { return true }),
		)
		Expect(err).To(HaveOccurred())
	})
})
