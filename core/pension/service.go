package pension

import (
	"context"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/colegio/core"
	"github.com/trezcool/colegio/core/parent"
	"github.com/trezcool/colegio/core/query"
	"github.com/trezcool/colegio/core/student"
)

var (
	ErrAlreadyPaid = errors.New("la pensión ya se encuentra pagada")
	ErrNoEmail     = errors.New("el apoderado no tiene un correo registrado")

	reminderTemplate = "pension_reminder"
)

type (
	Repository interface {
		QueryAll(ctx context.Context) ([]Pension, error)
		QueryByStudent(ctx context.Context, studentID int) ([]Pension, error)
		Get(ctx context.Context, id int) (Pension, error)
		Create(ctx context.Context, np NewPension) (Pension, error)
		Update(ctx context.Context, id int, up UpdatePension) (Pension, error)
		Pay(ctx context.Context, id int, pmt Payment) (Pension, error)
		Delete(ctx context.Context, id int) error
	}

	Service struct {
		repo     Repository
		qc       *query.Client
		students *student.Service
		parents  *parent.Service
		mailSvc  core.EmailService
	}
)

func NewService(repo Repository, qc *query.Client, students *student.Service, parents *parent.Service, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, qc: qc, students: students, parents: parents, mailSvc: mailSvc}
}

func DetailKey(id int) query.Key { return query.Pensions.With(id) }

// StudentPensionsKey is the per-student pensions view.
func StudentPensionsKey(studentID int) query.Key { return query.Students.With(studentID, "pensions") }

var statsKey = query.Stats.With("pensions")

func invalidatedByMutation(studentIDs ...int) []query.Key {
	keys := []query.Key{query.Pensions, query.Stats}
	for _, id := range studentIDs {
		if id != 0 {
			keys = append(keys, StudentPensionsKey(id))
		}
	}
	return keys
}

func (svc *Service) QueryAll(ctx context.Context) ([]Pension, error) {
	var pensions []Pension
	err := svc.qc.Fetch(ctx, query.Pensions, &pensions, func(ctx context.Context) (interface{}, error) {
		return svc.repo.QueryAll(ctx)
	})
	return pensions, errors.Wrap(err, "querying pensions")
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, orderings []core.Ordering) ([]Pension, error) {
	pensions, err := svc.QueryAll(ctx)
	if err != nil {
		return nil, err
	}
	today := core.Today()
	pensions = Filter(pensions, filter, today)
	Order(pensions, orderings, today)
	return pensions, nil
}

// QueryByStudent returns the pensions of a student, oldest period first.
func (svc *Service) QueryByStudent(ctx context.Context, studentID int) ([]Pension, error) {
	var pensions []Pension
	err := svc.qc.Fetch(ctx, StudentPensionsKey(studentID), &pensions, func(ctx context.Context) (interface{}, error) {
		return svc.repo.QueryByStudent(ctx, studentID)
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying student pensions")
	}
	Order(pensions, []core.Ordering{{Field: "periodo", Ascending: true}}, core.Today())
	return pensions, nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (Pension, error) {
	var p Pension
	err := svc.qc.Fetch(ctx, DetailKey(id), &p, func(ctx context.Context) (interface{}, error) {
		return svc.repo.Get(ctx, id)
	})
	return p, errors.Wrap(err, "getting pension")
}

func (svc *Service) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := svc.qc.Fetch(ctx, statsKey, &st, func(ctx context.Context) (interface{}, error) {
		pensions, err := svc.repo.QueryAll(ctx)
		if err != nil {
			return nil, err
		}
		return ComputeStats(pensions, core.Today()), nil
	})
	return st, errors.Wrap(err, "computing pension stats")
}

func (svc *Service) Create(ctx context.Context, np NewPension) (Pension, error) {
	var created Pension
	err := svc.qc.Mutate(ctx, query.Mutation{
		Do: func(ctx context.Context) (err error) {
			created, err = svc.repo.Create(ctx, np)
			return err
		},
		Invalidate: invalidatedByMutation(np.StudentID),
	})
	if err != nil {
		return Pension{}, errors.Wrap(err, "creating pension")
	}
	svc.qc.SetData(ctx, DetailKey(created.ID), created)
	return created, nil
}

func (svc *Service) Update(ctx context.Context, id int, up UpdatePension) (Pension, error) {
	prev, err := svc.GetByID(ctx, id)
	if err != nil {
		return Pension{}, err
	}

	var updated Pension
	err = svc.qc.Mutate(ctx, query.Mutation{
		Do: func(ctx context.Context) (err error) {
			updated, err = svc.repo.Update(ctx, id, up)
			return err
		},
		Invalidate: invalidatedByMutation(prev.StudentID, up.StudentID),
	})
	if err != nil {
		return Pension{}, errors.Wrap(err, "updating pension")
	}
	svc.qc.SetData(ctx, DetailKey(id), updated)
	return updated, nil
}

// Pay registers a payment. The detail view shows the pension as paid right away
// and goes back to its previous state if the API rejects the payment.
func (svc *Service) Pay(ctx context.Context, id int, pmt Payment) (Pension, error) {
	prev, err := svc.GetByID(ctx, id)
	if err != nil {
		return Pension{}, err
	}
	if prev.Status == StatusPaid {
		return Pension{}, core.NewValidationError(ErrAlreadyPaid)
	}

	optimistic := prev
	optimistic.Status = StatusPaid
	optimistic.PaidAt = pmt.PaidAt
	optimistic.PaymentMethod = pmt.PaymentMethod
	optimistic.VoucherURL = pmt.VoucherURL

	var paid Pension
	err = svc.qc.Mutate(ctx, query.Mutation{
		Optimistic: []query.Update{{Key: DetailKey(id), Value: optimistic}},
		Do: func(ctx context.Context) (err error) {
			paid, err = svc.repo.Pay(ctx, id, pmt)
			return err
		},
		Invalidate: invalidatedByMutation(prev.StudentID),
	})
	if err != nil {
		return Pension{}, errors.Wrap(err, "paying pension")
	}
	svc.qc.SetData(ctx, DetailKey(id), paid)
	return paid, nil
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	prev, err := svc.GetByID(ctx, id)
	if err != nil {
		return err
	}
	err = svc.qc.Mutate(ctx, query.Mutation{
		Do:         func(ctx context.Context) error { return svc.repo.Delete(ctx, id) },
		Invalidate: append(invalidatedByMutation(prev.StudentID), DetailKey(id)),
	})
	return errors.Wrap(err, "deleting pension")
}

type reminderData struct {
	GuardianName string
	StudentName  string
	Period       string
	Amount       float64
	LateFee      float64
	DueDate      string
	Overdue      bool
}

// Remind e-mails the student's guardian a payment reminder for the pension.
func (svc *Service) Remind(ctx context.Context, id int) error {
	p, err := svc.GetByID(ctx, id)
	if err != nil {
		return err
	}
	msg, err := svc.reminder(ctx, p)
	if err == ErrNoEmail {
		return core.NewValidationError(err)
	}
	if err != nil {
		return err
	}
	svc.mailSvc.SendMessages(msg)
	return nil
}

// RemindOverdue e-mails a reminder for every overdue pension and returns how many were sent.
// Pensions whose guardian has no e-mail are skipped.
func (svc *Service) RemindOverdue(ctx context.Context) (int, error) {
	pensions, err := svc.Query(ctx, QueryFilter{Status: StatusOverdue}, nil)
	if err != nil {
		return 0, err
	}
	messages := make([]*core.EmailMessage, 0, len(pensions))
	for _, p := range pensions {
		if !p.IsActive {
			continue
		}
		msg, err := svc.reminder(ctx, p)
		if err != nil {
			if err == ErrNoEmail {
				continue
			}
			return 0, err
		}
		messages = append(messages, msg)
	}
	if len(messages) > 0 {
		svc.mailSvc.SendMessages(messages...)
	}
	return len(messages), nil
}

func (svc *Service) reminder(ctx context.Context, p Pension) (*core.EmailMessage, error) {
	today := core.Today()
	if p.Status == StatusPaid {
		return nil, core.NewValidationError(ErrAlreadyPaid)
	}

	stud := p.Student
	if stud == nil || stud.GuardianID == 0 {
		s, err := svc.students.GetByID(ctx, p.StudentID)
		if err != nil {
			return nil, err
		}
		stud = &s
	}
	// the address comes from the guardian record, never from a copy embedded in a pension row
	guardianID := stud.GuardianID
	if guardianID == 0 && stud.Guardian != nil {
		guardianID = stud.Guardian.ID
	}
	guardian, err := svc.parents.GetByID(ctx, guardianID)
	if err != nil {
		return nil, err
	}
	if guardian.Email == "" {
		return nil, ErrNoEmail
	}

	return &core.EmailMessage{
		To:           []mail.Address{{Name: guardian.FullName(), Address: guardian.Email}},
		Subject:      "Recordatorio de pago: pensión de " + p.Period(),
		TemplateName: reminderTemplate,
		TemplateData: reminderData{
			GuardianName: guardian.FullName(),
			StudentName:  stud.FullName(),
			Period:       p.Period(),
			Amount:       p.Amount,
			LateFee:      p.LateFee,
			DueDate:      p.DueDate.String(),
			Overdue:      p.EffectiveStatus(today) == StatusOverdue,
		},
	}, nil
}
