package postgres_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgconn"

	"funding-catalog/internal/common/pagination"
	"funding-catalog/internal/domain/entity"
	pg "funding-catalog/internal/infra/adapter/persistence/postgres"
	"funding-catalog/internal/repository"
)

/* ─────────────────────────── helpers ─────────────────────────── */

var (
	day0 = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	articleCols = []string{
		"id", "title", "text", "rubric", "priority", "target_group", "support_type", "subject", "state",
		"archive_date", "application_deadline", "is_recurrent", "recurrent_check_from", "next_application_deadline",
		"next_archive_date", "contact_partner", "child_article", "parent_article",
	}

	idOpts = cmp.AllowUnexported(entity.ID[entity.Article]{}, entity.ID[entity.ContactPartner]{})
)

func artID(v int64) entity.ID[entity.Article] { return entity.AssignID[entity.Article](v) }

func nullable[T any](id entity.ID[T]) driver.Value {
	if v, ok := id.Value(); ok {
		return v
	}
	return nil
}

func sample() entity.Article {
	return entity.Article{
		Title:               "ERC Starting Grant",
		Text:                "five years of funding",
		Rubric:              entity.RubricHorizon2020,
		Priority:            entity.PriorityHigh,
		TargetGroup:         entity.TargetGroupPostdoc,
		SupportType:         entity.SupportIndividualResearch,
		Subject:             entity.SubjectOpenProgram,
		State:               entity.StatePublished,
		ApplicationDeadline: day0,
		ArchiveDate:         day0.AddDate(0, 1, 0),
		RecurrentInfo: &entity.RecurrentInfo{
			CheckFrom:           day0.AddDate(0, 6, 0),
			ApplicationDeadline: day0.AddDate(1, 0, 0),
			ArchiveDate:         day0.AddDate(1, 1, 0),
		},
		ContactPartner: entity.AssignID[entity.ContactPartner](3),
	}
}

func addArticle(rows *sqlmock.Rows, a entity.Article) *sqlmock.Rows {
	var check, next, archive driver.Value
	if a.RecurrentInfo != nil {
		check, next, archive = a.RecurrentInfo.CheckFrom, a.RecurrentInfo.ApplicationDeadline, a.RecurrentInfo.ArchiveDate
	}
	return rows.AddRow(
		a.ID.Int64(), a.Title, a.Text, string(a.Rubric), string(a.Priority), string(a.TargetGroup),
		string(a.SupportType), string(a.Subject), string(a.State), a.ArchiveDate, a.ApplicationDeadline,
		a.RecurrentInfo != nil, check, next, archive,
		nullable(a.ContactPartner), nullable(a.ChildArticle), nullable(a.ParentArticle),
	)
}

func articleRows(articles ...entity.Article) *sqlmock.Rows {
	rows := sqlmock.NewRows(articleCols)
	for _, a := range articles {
		addArticle(rows, a)
	}
	return rows
}

// writeArgs are the expected values for the 17 writable columns of a.
func writeArgs(a entity.Article) []driver.Value {
	var check, next, archive driver.Value
	if a.RecurrentInfo != nil {
		check, next, archive = a.RecurrentInfo.CheckFrom, a.RecurrentInfo.ApplicationDeadline, a.RecurrentInfo.ArchiveDate
	}
	return []driver.Value{
		a.Title, a.Text, string(a.Rubric), string(a.Priority), string(a.TargetGroup),
		string(a.SupportType), string(a.Subject), string(a.State), a.ArchiveDate, a.ApplicationDeadline,
		a.RecurrentInfo != nil, check, next, archive,
		nullable(a.ContactPartner), nullable(a.ChildArticle), nullable(a.ParentArticle),
	}
}

/* ─────────────────────────── 1. ByID ─────────────────────────── */

func TestArticleRepo_ByID(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	want := sample().WithID(artID(1))
	want.ChildArticle = artID(2)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, text")).
		WithArgs(int64(1)).
		WillReturnRows(articleRows(want))

	repo := pg.NewArticleRepo(db)
	got, err := repo.ByID(context.Background(), artID(1))
	if err != nil {
		t.Fatalf("ByID err=%v", err)
	}
	if diff := cmp.Diff(&want, got, idOpts); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestArticleRepo_ByID_NotFound(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, text")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(articleCols))

	repo := pg.NewArticleRepo(db)
	got, err := repo.ByID(context.Background(), artID(9))
	if err != nil || got != nil {
		t.Fatalf("ByID want (nil, nil), got (%v, %v)", got, err)
	}
}

func TestArticleRepo_ByID_IncompleteRecurrenceReadsAsOneOff(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	a := sample().WithID(artID(4))
	rows := sqlmock.NewRows(articleCols).AddRow(
		int64(4), a.Title, a.Text, string(a.Rubric), string(a.Priority), string(a.TargetGroup),
		string(a.SupportType), string(a.Subject), string(a.State), a.ArchiveDate, a.ApplicationDeadline,
		true, a.RecurrentInfo.CheckFrom, nil, a.RecurrentInfo.ArchiveDate,
		nil, nil, nil,
	)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, text")).
		WithArgs(int64(4)).
		WillReturnRows(rows)

	repo := pg.NewArticleRepo(db)
	got, err := repo.ByID(context.Background(), artID(4))
	if err != nil {
		t.Fatalf("ByID err=%v", err)
	}
	if got.RecurrentInfo != nil || got.IsRecurrent() {
		t.Fatalf("RecurrentInfo = %+v, want nil", got.RecurrentInfo)
	}
	if got.ContactPartner.IsAssigned() {
		t.Fatalf("ContactPartner should be unassigned")
	}
}

func TestArticleRepo_ByID_StorageError(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, text")).
		WillReturnError(sql.ErrConnDone)

	repo := pg.NewArticleRepo(db)
	_, err := repo.ByID(context.Background(), artID(1))
	if !errors.Is(err, entity.ErrStorage) || !errors.Is(err, sql.ErrConnDone) {
		t.Fatalf("ByID err=%v, want storage failure wrapping ErrConnDone", err)
	}
}

/* ─────────────────────────── 2. ByQuery ─────────────────────────── */

func TestArticleRepo_ByQuery_Windowed(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	a := sample().WithID(artID(1))
	b := sample().WithID(artID(2))
	b.RecurrentInfo = nil

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM articles WHERE (title ILIKE $1 OR text ILIKE $1)")).
		WithArgs("%grant%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery(regexp.QuoteMeta("FROM articles WHERE (title ILIKE $1 OR text ILIKE $1) ORDER BY application_deadline ASC, id ASC LIMIT $2 OFFSET $3")).
		WithArgs("%grant%", 2, 2).
		WillReturnRows(articleRows(a, b))

	repo := pg.NewArticleRepo(db)
	got, err := repo.ByQuery(context.Background(),
		repository.ArticleFilter{Keyword: "grant"},
		pagination.Params{Page: 2, Limit: 2}.Window())
	if err != nil {
		t.Fatalf("ByQuery err=%v", err)
	}
	if got.Total != 5 {
		t.Errorf("Total = %d, want 5", got.Total)
	}
	if diff := cmp.Diff([]entity.Article{a, b}, got.Items, idOpts); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestArticleRepo_ByQuery_UnboundedArchived(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM articles WHERE archive_date < $1")).
		WithArgs(day0).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE archive_date < $1 ORDER BY archive_date DESC, id ASC")).
		WithArgs(day0).
		WillReturnRows(articleRows(sample().WithID(artID(8))))

	repo := pg.NewArticleRepo(db)
	got, err := repo.ByQuery(context.Background(),
		repository.ArticleFilter{ArchivedBefore: &day0, Order: repository.OrderByArchiveDateDesc},
		pagination.Unbounded)
	if err != nil {
		t.Fatalf("ByQuery err=%v", err)
	}
	if got.Total != 1 || len(got.Items) != 1 {
		t.Fatalf("got total=%d items=%d, want 1/1", got.Total, len(got.Items))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestArticleRepo_ByQuery_NoMatchesSkipsSelect(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM articles")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	repo := pg.NewArticleRepo(db)
	got, err := repo.ByQuery(context.Background(), repository.ArticleFilter{}, pagination.Window{Limit: 10})
	if err != nil {
		t.Fatalf("ByQuery err=%v", err)
	}
	if got.Total != 0 || got.Items == nil || len(got.Items) != 0 {
		t.Fatalf("got %+v, want empty non-nil page", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestArticleRepo_CountOf(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM articles WHERE rubric IN ($1)")).
		WithArgs("LMU").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	repo := pg.NewArticleRepo(db)
	n, err := repo.CountOf(context.Background(), repository.ArticleFilter{Rubrics: []entity.Rubric{entity.RubricLMU}})
	if err != nil || n != 12 {
		t.Fatalf("CountOf = (%d, %v), want (12, nil)", n, err)
	}
}

/* ─────────────────────────── 3. Create / Update ─────────────────────────── */

func TestArticleRepo_Create(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	a := sample()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO articles")).
		WithArgs(writeArgs(a)...).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	repo := pg.NewArticleRepo(db)
	got, err := repo.Create(context.Background(), a)
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}
	if diff := cmp.Diff(a.WithID(artID(7)), got, idOpts); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestArticleRepo_Create_MissingContactPartner(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO articles")).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "fk_articles_contact_partner"})

	repo := pg.NewArticleRepo(db)
	_, err := repo.Create(context.Background(), sample())

	var failed *entity.ValidationFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("Create err=%v, want ValidationFailedError", err)
	}
	var fe *entity.ValidationError
	if !errors.As(failed.Violations[0], &fe) || fe.Field != "contactPartner" {
		t.Fatalf("violation = %v, want contactPartner field", failed.Violations[0])
	}
}

func TestArticleRepo_Update(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	a := sample().WithID(artID(5))
	a.RecurrentInfo = nil
	args := append(writeArgs(a), int64(5))

	mock.ExpectExec("UPDATE articles").
		WithArgs(args...).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := pg.NewArticleRepo(db)
	if err := repo.Update(context.Background(), a); err != nil {
		t.Fatalf("Update err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestArticleRepo_Update_MissingRowIsNoop(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec("UPDATE articles").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := pg.NewArticleRepo(db)
	if err := repo.Update(context.Background(), sample().WithID(artID(404))); err != nil {
		t.Fatalf("Update err=%v, want nil", err)
	}
}

/* ─────────────────────────── 4. Delete ─────────────────────────── */

func TestArticleRepo_Delete_ClearsRelations(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE articles SET child_article = NULL WHERE child_article = $1")).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE articles SET parent_article = NULL WHERE parent_article = $1")).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM articles WHERE id = $1")).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := pg.NewArticleRepo(db)
	if err := repo.Delete(context.Background(), artID(3)); err != nil {
		t.Fatalf("Delete err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestArticleRepo_Delete_RollsBackOnFailure(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE articles SET child_article = NULL")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE articles SET parent_article = NULL")).
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	repo := pg.NewArticleRepo(db)
	err := repo.Delete(context.Background(), artID(3))
	if !errors.Is(err, entity.ErrStorage) {
		t.Fatalf("Delete err=%v, want storage failure", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

/* ─────────────────────────── 5. CreateLinkedChild ─────────────────────────── */

func TestArticleRepo_CreateLinkedChild(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	parent := sample().WithID(artID(10))
	child, _ := parent.RecurrentCopy()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM articles WHERE id = $1 AND child_article IS NULL FOR UPDATE")).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO articles")).
		WithArgs(writeArgs(child)...).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	// only the link and the recurrence flag change; the parent keeps its dates
	mock.ExpectExec("^" + regexp.QuoteMeta("UPDATE articles SET child_article = $1, is_recurrent = FALSE WHERE id = $2 AND child_article IS NULL") + "$").
		WithArgs(int64(11), int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := pg.NewArticleRepo(db)
	got, err := repo.CreateLinkedChild(context.Background(), parent.ID, child)
	if err != nil {
		t.Fatalf("CreateLinkedChild err=%v", err)
	}
	if got.ID != artID(11) || got.ParentArticle != artID(10) || got.RecurrentInfo != nil {
		t.Fatalf("got %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestArticleRepo_CreateLinkedChild_ParentAlreadyLinked(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	repo := pg.NewArticleRepo(db)
	child, _ := sample().WithID(artID(10)).RecurrentCopy()
	_, err := repo.CreateLinkedChild(context.Background(), artID(10), child)
	if !errors.Is(err, repository.ErrAlreadyLinked) {
		t.Fatalf("err=%v, want ErrAlreadyLinked", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestArticleRepo_CreateLinkedChild_LostGuardRollsBack(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO articles")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE articles SET child_article = $1")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	repo := pg.NewArticleRepo(db)
	child, _ := sample().WithID(artID(10)).RecurrentCopy()
	_, err := repo.CreateLinkedChild(context.Background(), artID(10), child)
	if !errors.Is(err, repository.ErrAlreadyLinked) {
		t.Fatalf("err=%v, want ErrAlreadyLinked", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestArticleRepo_CreateLinkedChild_InsertFailure(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO articles")).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	repo := pg.NewArticleRepo(db)
	child, _ := sample().WithID(artID(10)).RecurrentCopy()
	_, err := repo.CreateLinkedChild(context.Background(), artID(10), child)
	if !errors.Is(err, entity.ErrStorage) || errors.Is(err, repository.ErrAlreadyLinked) {
		t.Fatalf("err=%v, want storage failure", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
