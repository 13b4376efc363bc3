// ledger-admin is the registrar's command-line client for a running ledger
// server: directory management, record finalization, fee and escrow
// administration, and demo seeding.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/campuschain/transcript-ledger-backend/api"
	"github.com/campuschain/transcript-ledger-backend/api/clients"
	"github.com/campuschain/transcript-ledger-backend/cmd/flags"
	"github.com/campuschain/transcript-ledger-backend/common"
	"github.com/campuschain/transcript-ledger-backend/interfaces"
)

func main() {
	app := &cli.App{
		Name:    "ledger-admin",
		Usage:   "Administer a running transcript ledger server",
		Version: common.Version,
		Flags: append([]cli.Flag{
			flags.ServerAddrFlag,
			flags.CallerFlag,
		}, flags.CommonFlags...),
		Commands: []*cli.Command{
			{
				Name:      "add-course",
				Usage:     "Create a course and assign its teacher",
				ArgsUsage: "<course-id> <name> <teacher-address>",
				Action:    runAddCourse,
			},
			{
				Name:      "register-student",
				Usage:     "Register a student address",
				ArgsUsage: "<student-address>",
				Action:    runRegisterStudent,
			},
			{
				Name:      "enroll",
				Usage:     "Enroll a registered student in a course",
				ArgsUsage: "<student-address> <course-id>",
				Action:    runEnroll,
			},
			{
				Name:      "grant-role",
				Usage:     "Grant a role (registrar, teacher, student)",
				ArgsUsage: "<role> <address>",
				Action: func(cCtx *cli.Context) error {
					return runRoleChange(cCtx, true)
				},
			},
			{
				Name:      "revoke-role",
				Usage:     "Revoke a role",
				ArgsUsage: "<role> <address>",
				Action: func(cCtx *cli.Context) error {
					return runRoleChange(cCtx, false)
				},
			},
			{
				Name:      "finalize",
				Usage:     "Finalize an issued record",
				ArgsUsage: "<student-address> <course-id>",
				Action:    runFinalize,
			},
			{
				Name:      "set-fee",
				Usage:     "Set the verification fee in wei",
				ArgsUsage: "<amount>",
				Action:    runSetFee,
			},
			{
				Name:   "withdraw",
				Usage:  "Drain the escrowed fees to the treasury",
				Action: runWithdraw,
			},
			{
				Name:   "balance",
				Usage:  "Show the escrowed balance and treasury address",
				Action: runBalance,
			},
			{
				Name:      "seed",
				Usage:     "Seed the demo directory: course 101 with one enrolled student",
				ArgsUsage: "<teacher-address> <student-address>",
				Action:    runSeed,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newClient(cCtx *cli.Context) (*clients.LedgerClient, error) {
	caller, err := interfaces.ParseAddress(cCtx.String(flags.CallerFlag.Name))
	if err != nil {
		return nil, err
	}
	return clients.NewLedgerClient(cCtx.String(flags.ServerAddrFlag.Name), caller), nil
}

func requireArgs(cCtx *cli.Context, n int) error {
	if cCtx.Args().Len() != n {
		return fmt.Errorf("expected %d arguments, got %d", n, cCtx.Args().Len())
	}
	return nil
}

func runAddCourse(cCtx *cli.Context) error {
	if err := requireArgs(cCtx, 3); err != nil {
		return err
	}
	client, err := newClient(cCtx)
	if err != nil {
		return err
	}

	id, err := interfaces.ParseCourseID(cCtx.Args().Get(0))
	if err != nil {
		return err
	}
	teacher, err := interfaces.ParseAddress(cCtx.Args().Get(2))
	if err != nil {
		return err
	}

	if err := client.AddCourse(id, cCtx.Args().Get(1), teacher); err != nil {
		return err
	}
	fmt.Printf("course %d created, teacher %s\n", id, teacher.Hex())
	return nil
}

func runRegisterStudent(cCtx *cli.Context) error {
	if err := requireArgs(cCtx, 1); err != nil {
		return err
	}
	client, err := newClient(cCtx)
	if err != nil {
		return err
	}

	student, err := interfaces.ParseAddress(cCtx.Args().Get(0))
	if err != nil {
		return err
	}

	if err := client.RegisterStudent(student); err != nil {
		return err
	}
	fmt.Printf("student %s registered\n", student.Hex())
	return nil
}

func runEnroll(cCtx *cli.Context) error {
	if err := requireArgs(cCtx, 2); err != nil {
		return err
	}
	client, err := newClient(cCtx)
	if err != nil {
		return err
	}

	student, err := interfaces.ParseAddress(cCtx.Args().Get(0))
	if err != nil {
		return err
	}
	id, err := interfaces.ParseCourseID(cCtx.Args().Get(1))
	if err != nil {
		return err
	}

	if err := client.EnrollInCourse(student, id); err != nil {
		return err
	}
	fmt.Printf("student %s enrolled in course %d\n", student.Hex(), id)
	return nil
}

func runRoleChange(cCtx *cli.Context, grant bool) error {
	if err := requireArgs(cCtx, 2); err != nil {
		return err
	}
	client, err := newClient(cCtx)
	if err != nil {
		return err
	}

	role := cCtx.Args().Get(0)
	addr, err := interfaces.ParseAddress(cCtx.Args().Get(1))
	if err != nil {
		return err
	}

	if grant {
		err = client.GrantRole(role, addr)
	} else {
		err = client.RevokeRole(role, addr)
	}
	if err != nil {
		return err
	}

	verb := "granted to"
	if !grant {
		verb = "revoked from"
	}
	fmt.Printf("role %s %s %s\n", role, verb, addr.Hex())
	return nil
}

func runFinalize(cCtx *cli.Context) error {
	if err := requireArgs(cCtx, 2); err != nil {
		return err
	}
	client, err := newClient(cCtx)
	if err != nil {
		return err
	}

	student, err := interfaces.ParseAddress(cCtx.Args().Get(0))
	if err != nil {
		return err
	}
	id, err := interfaces.ParseCourseID(cCtx.Args().Get(1))
	if err != nil {
		return err
	}

	if err := client.FinalizeRecord(student, id); err != nil {
		return err
	}
	fmt.Printf("record for %s in course %d finalized\n", student.Hex(), id)
	return nil
}

func runSetFee(cCtx *cli.Context) error {
	if err := requireArgs(cCtx, 1); err != nil {
		return err
	}
	client, err := newClient(cCtx)
	if err != nil {
		return err
	}

	fee, err := api.ParseAmount(cCtx.Args().Get(0))
	if err != nil {
		return err
	}

	if err := client.SetVerificationFee(fee); err != nil {
		return err
	}
	fmt.Printf("verification fee set to %s wei\n", fee.String())
	return nil
}

func runWithdraw(cCtx *cli.Context) error {
	client, err := newClient(cCtx)
	if err != nil {
		return err
	}

	amount, err := client.WithdrawFees()
	if err != nil {
		return err
	}
	fmt.Printf("withdrew %s wei to the treasury\n", amount.String())
	return nil
}

func runBalance(cCtx *cli.Context) error {
	client, err := newClient(cCtx)
	if err != nil {
		return err
	}

	balance, err := client.EscrowedBalance()
	if err != nil {
		return err
	}
	fmt.Printf("escrowed balance: %s wei\n", balance.String())
	return nil
}

// runSeed reproduces the demo data set: course 101 with one registered and
// enrolled student. Safe to re-run; registration and enrollment are
// idempotent.
func runSeed(cCtx *cli.Context) error {
	if err := requireArgs(cCtx, 2); err != nil {
		return err
	}
	client, err := newClient(cCtx)
	if err != nil {
		return err
	}

	teacher, err := interfaces.ParseAddress(cCtx.Args().Get(0))
	if err != nil {
		return err
	}
	student, err := interfaces.ParseAddress(cCtx.Args().Get(1))
	if err != nil {
		return err
	}

	const demoCourse = interfaces.CourseID(101)
	if err := client.AddCourse(demoCourse, "Solidity 101", teacher); err != nil && !errors.Is(err, interfaces.ErrAlreadyExists) {
		return fmt.Errorf("adding demo course: %w", err)
	}
	if err := client.RegisterStudent(student); err != nil {
		return fmt.Errorf("registering demo student: %w", err)
	}
	if err := client.EnrollInCourse(student, demoCourse); err != nil {
		return fmt.Errorf("enrolling demo student: %w", err)
	}

	fmt.Printf("seeded course %d with student %s (teacher %s)\n", demoCourse, student.Hex(), teacher.Hex())
	return nil
}
