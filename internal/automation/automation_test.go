package automation

import (
	"context"
	"io"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/couette/internal/dynamo"
	"github.com/san-kum/couette/internal/physics"
	"github.com/sirupsen/logrus"
)

func quietOptions() Options {
	l := logrus.New()
	l.SetOutput(io.Discard)
	opts := DefaultOptions()
	opts.Solver.Points = 301
	opts.Logger = l
	return opts
}

var _ = Describe("RunSweep", func() {
	var (
		ctx  context.Context
		opts Options
	)

	BeforeEach(func() {
		ctx = context.Background()
		opts = quietOptions()
	})

	It("solves every case and shares one height grid", func() {
		res, err := RunSweep(ctx, physics.DefaultConstants(), []float64{0, 0.5, 1}, opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Converged()).To(Equal(3))
		Expect(res.Failed()).To(Equal(0))
		Expect(res.Indices()).To(Equal([]int{0, 1, 2}))

		data := res.Data()
		Expect(data.Y).To(HaveLen(301))
		Expect(data.MachR).To(Equal([]float64{0, 0.5, 1}))
		Expect(data.U0).To(HaveLen(3))
		Expect(data.T).To(HaveLen(3))
		Expect(data.Eta).To(HaveLen(3))
		Expect(data.Xi).To(Equal(data.T))
		for i := range data.MachR {
			Expect(data.U0[i]).To(HaveLen(301))
			Expect(data.T[i][300]).To(Equal(1.0))
			Expect(data.U0[i][300]).To(BeNumerically("~", 1.0, 1e-3))
		}
		Expect(data.Tau[0]).To(BeNumerically("~", 1.0, 1e-6))
	})

	It("skips a failing case and keeps the rest", func() {
		opts.Solver.BracketLower = 0.5
		opts.Solver.BracketOffset = 0.6
		opts.Solver.Roots.MaxExpansions = 0

		res, err := RunSweep(ctx, physics.DefaultConstants(), []float64{0, 1}, opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Failed()).To(Equal(1))
		Expect(res.Failures[0].Index).To(Equal(0))
		Expect(res.Failures[0].Mach).To(Equal(0.0))
		Expect(res.Failures[0]).To(MatchError(dynamo.ErrNoBracket))

		Expect(res.Indices()).To(Equal([]int{1}))
		Expect(res.Data().MachR).To(Equal([]float64{1}))
	})

	It("gives the same profiles with several workers", func() {
		machs := []float64{0, 0.5, 1, 1.5, 2}
		seq, err := RunSweep(ctx, physics.DefaultConstants(), machs, opts)
		Expect(err).NotTo(HaveOccurred())

		opts.Workers = 3
		par, err := RunSweep(ctx, physics.DefaultConstants(), machs, opts)
		Expect(err).NotTo(HaveOccurred())

		Expect(par.Indices()).To(Equal(seq.Indices()))
		Expect(par.Data()).To(Equal(seq.Data()))
	})

	It("keeps failures in case order with several workers", func() {
		opts.Solver.BracketLower = 0.5
		opts.Solver.BracketOffset = 0.6
		opts.Solver.Roots.MaxExpansions = 0
		opts.Workers = 4

		res, err := RunSweep(ctx, physics.DefaultConstants(), []float64{0, 1, 0, 1}, opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Failed()).To(Equal(2))
		Expect(res.Failures[0].Index).To(Equal(0))
		Expect(res.Failures[1].Index).To(Equal(2))
		Expect(res.Indices()).To(Equal([]int{1, 3}))
	})

	It("rejects a negative worker count", func() {
		opts.Workers = -1
		_, err := RunSweep(ctx, physics.DefaultConstants(), []float64{1}, opts)
		Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
	})

	DescribeTable("rejects malformed input before solving",
		func(c physics.Constants, machs []float64) {
			res, err := RunSweep(ctx, c, machs, opts)
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
			Expect(res).To(BeNil())
		},
		Entry("empty Mach sequence", physics.DefaultConstants(), []float64{}),
		Entry("negative Mach number", physics.DefaultConstants(), []float64{1, -2}),
		Entry("non-positive Prandtl number", physics.Constants{Prandtl: 0, Gamma: 1.4, ViscosityC: 0.5}, []float64{1}),
		Entry("non-positive viscosity constant", physics.Constants{Prandtl: 0.72, Gamma: 1.4, ViscosityC: -0.5}, []float64{1}),
	)

	It("rejects a grid that is too small", func() {
		opts.Solver.Points = 1
		_, err := RunSweep(ctx, physics.DefaultConstants(), []float64{1}, opts)
		Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
	})

	It("stops between cases when the context is cancelled", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		res, err := RunSweep(cctx, physics.DefaultConstants(), []float64{0, 1}, opts)
		Expect(err).To(MatchError(context.Canceled))
		Expect(res.Converged()).To(Equal(0))
	})
})

var _ = Describe("Scenario", func() {
	It("loads and runs every step", func() {
		path := filepath.Join(GinkgoT().TempDir(), "scenario.yaml")
		Expect(os.WriteFile(path, []byte(`
name: gases
description: air against a high-Prandtl fluid
steps:
  - name: air
    constants: {prandtl: 0.72, gamma: 1.4, viscosity_c: 0.5}
    machs: [0.5, 1]
  - name: oil
    constants: {prandtl: 7.0, gamma: 1.4, viscosity_c: 0.5}
    machs: [0.5]
`), 0644)).To(Succeed())

		scenario, err := LoadScenario(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(scenario.Steps).To(HaveLen(2))
		Expect(scenario.Steps[1].Constants.Prandtl).To(Equal(7.0))

		results, err := RunScenario(context.Background(), scenario, quietOptions())
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))
		Expect(results[0].Converged()).To(Equal(2))
		Expect(results[1].Converged()).To(Equal(1))
	})

	It("validates all steps up front", func() {
		scenario := &Scenario{Name: "bad", Steps: []ScenarioStep{
			{Name: "ok", Constants: physics.DefaultConstants(), Machs: []float64{1}},
			{Name: "empty", Constants: physics.DefaultConstants()},
		}}
		_, err := RunScenario(context.Background(), scenario, quietOptions())
		Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
	})
})
