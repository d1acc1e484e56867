package state_test

import (
	"kycflow/domain/state"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("StateMachine", func() {
	var (
		stateMachine *state.StateMachine
	)

	BeforeEach(func() {
		//         PENDING      DOING         DONE
		// PENDING   -            V (begin)   V (close)
		// DOING     V (cancel)   -           V (finish)
		// DONE      V (reopen)   X			  -
		stateMachine = state.NewStateMachine(
			[]state.State{{Name: "PENDING"}, {Name: "DOING", Category: state.InProcess}, {Name: "DONE", Category: state.Done}},
			[]state.Transition{
				{Name: "begin", From: state.State{Name: "PENDING"}, To: state.State{Name: "DOING"}},
				{Name: "close", From: state.State{Name: "PENDING"}, To: state.State{Name: "DONE"}},
				{Name: "cancel", From: state.State{Name: "DOING"}, To: state.State{Name: "PENDING"}},
				{Name: "finish", From: state.State{Name: "DOING"}, To: state.State{Name: "DONE"}},
				{Name: "reopen", From: state.State{Name: "DONE"}, To: state.State{Name: "PENDING"}},
			})
	})

	Describe("AvailableTransitions", func() {
		It("should filter transitions by source and target", func() {
			Ω(stateMachine.AvailableTransitions("PENDING", "")).Should(Equal([]state.Transition{
				{Name: "begin", From: state.State{Name: "PENDING"}, To: state.State{Name: "DOING"}},
				{Name: "close", From: state.State{Name: "PENDING"}, To: state.State{Name: "DONE"}},
			}))
			Ω(stateMachine.AvailableTransitions("", "DONE")).Should(Equal([]state.Transition{
				{Name: "close", From: state.State{Name: "PENDING"}, To: state.State{Name: "DONE"}},
				{Name: "finish", From: state.State{Name: "DOING"}, To: state.State{Name: "DONE"}},
			}))
			Ω(stateMachine.AvailableTransitions("DONE", "DOING")).Should(BeEmpty())
			Ω(stateMachine.AvailableTransitions("UNKNOWN", "")).Should(BeEmpty())
			Ω(len(stateMachine.AvailableTransitions("", ""))).Should(Equal(5))
		})
	})

	Describe("CanPerform", func() {
		It("should check action by name", func() {
			Expect(stateMachine.CanPerform("begin", "PENDING")).To(BeTrue())
			Expect(stateMachine.CanPerform("begin", "DOING")).To(BeFalse())
			Expect(stateMachine.CanPerform("unknown", "PENDING")).To(BeFalse())
		})
	})

	Describe("IsTerminal", func() {
		It("should treat Done category as terminal", func() {
			Expect(stateMachine.IsTerminal("DONE")).To(BeTrue())
			Expect(stateMachine.IsTerminal("DOING")).To(BeFalse())
			Expect(stateMachine.IsTerminal("UNKNOWN")).To(BeFalse())
		})
	})
})

var _ = Describe("KycStateMachine", func() {
	It("should only approve and reject records in review", func() {
		for _, s := range []string{state.StatusInProgress, state.StatusResubmissionRequired, state.StatusRejected, state.StatusApproved} {
			Expect(state.KycStateMachine.CanPerform(state.ActionApprove, s)).To(BeFalse(), s)
			Expect(state.KycStateMachine.CanPerform(state.ActionReject, s)).To(BeFalse(), s)
			Expect(state.KycStateMachine.CanPerform(state.ActionPullBack, s)).To(BeFalse(), s)
		}
		Expect(state.KycStateMachine.CanPerform(state.ActionApprove, state.StatusInReview)).To(BeTrue())
		Expect(state.KycStateMachine.CanPerform(state.ActionReject, state.StatusInReview)).To(BeTrue())
		Expect(state.KycStateMachine.CanPerform(state.ActionPullBack, state.StatusInReview)).To(BeTrue())
	})

	It("should resubmit from rejected or resubmission required", func() {
		Expect(state.KycStateMachine.CanPerform(state.ActionResubmit, state.StatusRejected)).To(BeTrue())
		Expect(state.KycStateMachine.CanPerform(state.ActionResubmit, state.StatusResubmissionRequired)).To(BeTrue())
		Expect(state.KycStateMachine.CanPerform(state.ActionResubmit, state.StatusInReview)).To(BeFalse())
		Expect(state.KycStateMachine.CanPerform(state.ActionResubmit, state.StatusApproved)).To(BeFalse())
	})

	It("should transfer only open records", func() {
		Expect(state.KycStateMachine.CanPerform(state.ActionBranchTransfer, state.StatusInReview)).To(BeTrue())
		Expect(state.KycStateMachine.CanPerform(state.ActionBranchTransfer, state.StatusResubmissionRequired)).To(BeTrue())
		Expect(state.KycStateMachine.CanPerform(state.ActionBranchTransfer, state.StatusRejected)).To(BeFalse())
		Expect(state.KycStateMachine.CanPerform(state.ActionBranchTransfer, state.StatusApproved)).To(BeFalse())
	})

	It("should mark rejected and approved as terminal", func() {
		Expect(state.KycStateMachine.IsTerminal(state.StatusApproved)).To(BeTrue())
		Expect(state.KycStateMachine.IsTerminal(state.StatusRejected)).To(BeTrue())
		Expect(state.KycStateMachine.IsTerminal(state.StatusInReview)).To(BeFalse())
	})
})
