package repositories

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	crdbpgx "github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgxv5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/photofriends/backend/internal/assets"
	"github.com/photofriends/backend/internal/db"
	"github.com/photofriends/backend/internal/models"
)

const (
	userColumns = `id, username, email, password_hash, registered_on, real_name, date_of_birth, city`
	postColumns = `id, user_id, title, description, filename, mime_type, posted_on, asset_status, asset_url`
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// runInTx executes fn in a transaction, re-running it on serialization failures.
func runInTx(ctx context.Context, pool db.Pool, fn func(pgx.Tx) error) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return crdbpgx.ExecuteTx(ctx, conn, pgx.TxOptions{}, fn)
}

func asConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return &ConflictError{Constraint: pgErr.ConstraintName, Message: pgErr.Message}
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record and returns it with its assigned id.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        INSERT INTO users (username, email, password_hash, registered_on, real_name, date_of_birth, city)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `, user.Username, user.Email, user.PasswordHash, user.RegisteredAt,
		user.PersonalData.RealName, user.PersonalData.DateOfBirth, user.PersonalData.City)
	if err := row.Scan(&user.ID); err != nil {
		if conflict := asConflict(err); conflict != nil {
			return models.User{}, conflict
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}

	user.FriendIDs = []int64{}
	return user, nil
}

// FindByID fetches a user together with the ids of its friends.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id int64) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return findUser(ctx, conn, id)
}

// Search returns users matching every non-nil field of the filter.
func (r *PostgresUserRepository) Search(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var (
		conds []string
		args  []any
	)
	add := func(format string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(format, len(args)))
	}
	if filter.Username != nil {
		add("strpos(username, $%d) > 0", *filter.Username)
	}
	if filter.Email != nil {
		add("strpos(email, $%d) > 0", *filter.Email)
	}
	if filter.RealName != nil {
		add("strpos(real_name, $%d) > 0", *filter.RealName)
	}
	if filter.City != nil {
		add("city = $%d", *filter.City)
	}
	if filter.RegisteredAfter != nil {
		add("registered_on >= $%d", filter.RegisteredAfter.UTC())
	}

	query := `SELECT ` + userColumns + ` FROM users`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY id`

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}

	users, err := collectUsers(rows)
	if err != nil {
		return nil, err
	}

	if len(users) == 0 {
		return users, nil
	}

	ids := make([]int64, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}

	friends, err := friendIDsOf(ctx, conn, ids)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].FriendIDs = friends[users[i].ID]
	}

	return users, nil
}

// UpdateAccount replaces the email address and password hash of a user.
func (r *PostgresUserRepository) UpdateAccount(ctx context.Context, id int64, email, passwordHash string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET email = $2, password_hash = $3
        WHERE id = $1
    `, id, email, passwordHash)
	if err != nil {
		if conflict := asConflict(err); conflict != nil {
			return models.User{}, conflict
		}
		return models.User{}, fmt.Errorf("update user account: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.User{}, ErrNotFound
	}

	return findUser(ctx, conn, id)
}

// UpdatePersonalData replaces the personal data columns of a user.
func (r *PostgresUserRepository) UpdatePersonalData(ctx context.Context, id int64, data models.PersonalData) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET real_name = $2, date_of_birth = $3, city = $4
        WHERE id = $1
    `, id, data.RealName, data.DateOfBirth, data.City)
	if err != nil {
		return models.User{}, fmt.Errorf("update personal data: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.User{}, ErrNotFound
	}

	return findUser(ctx, conn, id)
}

// Delete scrubs the user's friendships, then its posts, then the user row,
// all inside one transaction.
func (r *PostgresUserRepository) Delete(ctx context.Context, id int64) ([]models.Post, error) {
	var removed []models.Post

	err := runInTx(ctx, r.pool, func(tx pgx.Tx) error {
		var locked int64
		if err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&locked); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock user: %w", err)
		}

		if err := deleteEdgesOf(ctx, tx, id); err != nil {
			return err
		}

		rows, err := tx.Query(ctx, `DELETE FROM posts WHERE user_id = $1 RETURNING `+postColumns, id)
		if err != nil {
			return fmt.Errorf("delete user posts: %w", err)
		}
		posts, err := collectPosts(rows)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}

		removed = posts
		return nil
	})
	if err != nil {
		return nil, err
	}

	return removed, nil
}

func findUser(ctx context.Context, q querier, id int64) (models.User, error) {
	user, err := scanUser(q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by id: %w", err)
	}

	friends, err := friendIDsOf(ctx, q, []int64{id})
	if err != nil {
		return models.User{}, err
	}
	user.FriendIDs = friends[id]

	return user, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.RegisteredAt,
		&user.PersonalData.RealName, &user.PersonalData.DateOfBirth, &user.PersonalData.City); err != nil {
		return models.User{}, err
	}
	user.RegisteredAt = user.RegisteredAt.UTC()
	return user, nil
}

func collectUsers(rows pgx.Rows) ([]models.User, error) {
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// PostgresFriendRepository stores friendships as one canonical row per pair.
type PostgresFriendRepository struct {
	pool db.Pool
}

// NewPostgresFriendRepository constructs a friend repository backed by PostgreSQL.
func NewPostgresFriendRepository(pool db.Pool) *PostgresFriendRepository {
	return &PostgresFriendRepository{pool: pool}
}

// Link inserts the friendship if it is not already present. Both user rows
// are locked for the duration of the transaction.
func (r *PostgresFriendRepository) Link(ctx context.Context, userID, friendID int64) ([]models.UserSummary, error) {
	var friends []models.UserSummary

	err := runInTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockUsers(ctx, tx, userID, friendID); err != nil {
			return err
		}

		low, high := edgeKey(userID, friendID)
		if _, err := tx.Exec(ctx, `
            INSERT INTO friendships (user_low, user_high)
            VALUES ($1, $2)
            ON CONFLICT (user_low, user_high) DO NOTHING
        `, low, high); err != nil {
			return fmt.Errorf("insert friendship: %w", err)
		}

		var err error
		friends, err = listFriends(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return friends, nil
}

// Unlink removes the friendship between both users.
func (r *PostgresFriendRepository) Unlink(ctx context.Context, userID, friendID int64) error {
	return runInTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockUsers(ctx, tx, userID, friendID); err != nil {
			return err
		}

		low, high := edgeKey(userID, friendID)
		tag, err := tx.Exec(ctx, `
            DELETE FROM friendships
            WHERE user_low = $1 AND user_high = $2
        `, low, high)
		if err != nil {
			return fmt.Errorf("delete friendship: %w", err)
		}

		if tag.RowsAffected() == 0 {
			return ErrNoEdge
		}

		return nil
	})
}

// ListFriends returns summaries of the user's friends ordered by id.
func (r *PostgresFriendRepository) ListFriends(ctx context.Context, userID int64) ([]models.UserSummary, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if err := ensureUser(ctx, conn, userID); err != nil {
		return nil, err
	}

	return listFriends(ctx, conn, userID)
}

// ListFriendIDs returns the ids of the user's friends ordered by id.
func (r *PostgresFriendRepository) ListFriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if err := ensureUser(ctx, conn, userID); err != nil {
		return nil, err
	}

	friends, err := friendIDsOf(ctx, conn, []int64{userID})
	if err != nil {
		return nil, err
	}

	return friends[userID], nil
}

func edgeKey(a, b int64) (int64, int64) {
	if a < b {
		return a, b
	}
	return b, a
}

// lockUsers takes row locks on the given users in id order and reports the
// first id, in argument order, that does not exist.
func lockUsers(ctx context.Context, tx pgx.Tx, ids ...int64) error {
	rows, err := tx.Query(ctx, `SELECT id FROM users WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return fmt.Errorf("lock users: %w", err)
	}
	defer rows.Close()

	found := make(map[int64]struct{}, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan locked user: %w", err)
		}
		found[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate locked users: %w", err)
	}

	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return &MissingRecordError{Table: "users", ID: id}
		}
	}

	return nil
}

func ensureUser(ctx context.Context, q querier, id int64) error {
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check user exists: %w", err)
	}
	if !exists {
		return &MissingRecordError{Table: "users", ID: id}
	}
	return nil
}

func deleteEdgesOf(ctx context.Context, q querier, userID int64) error {
	if _, err := q.Exec(ctx, `
        DELETE FROM friendships
        WHERE user_low = $1 OR user_high = $1
    `, userID); err != nil {
		return fmt.Errorf("delete friendships of user: %w", err)
	}
	return nil
}

func listFriends(ctx context.Context, q querier, userID int64) ([]models.UserSummary, error) {
	rows, err := q.Query(ctx, `
        SELECT u.id, u.username, u.email, u.registered_on
        FROM friendships f
        JOIN users u
          ON u.id = CASE WHEN f.user_low = $1 THEN f.user_high ELSE f.user_low END
        WHERE f.user_low = $1 OR f.user_high = $1
        ORDER BY u.id
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query friends: %w", err)
	}
	defer rows.Close()

	friends := []models.UserSummary{}
	for rows.Next() {
		var friend models.UserSummary
		if err := rows.Scan(&friend.ID, &friend.Username, &friend.Email, &friend.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan friend: %w", err)
		}
		friend.RegisteredAt = friend.RegisteredAt.UTC()
		friends = append(friends, friend)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate friends: %w", err)
	}

	return friends, nil
}

// friendIDsOf maps each requested user id to its sorted friend ids. Every
// requested id is present in the result, possibly with an empty slice.
func friendIDsOf(ctx context.Context, q querier, userIDs []int64) (map[int64][]int64, error) {
	out := make(map[int64][]int64, len(userIDs))
	for _, id := range userIDs {
		out[id] = []int64{}
	}

	rows, err := q.Query(ctx, `
        SELECT user_low, user_high
        FROM friendships
        WHERE user_low = ANY($1) OR user_high = ANY($1)
    `, userIDs)
	if err != nil {
		return nil, fmt.Errorf("query friend ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var low, high int64
		if err := rows.Scan(&low, &high); err != nil {
			return nil, fmt.Errorf("scan friend ids: %w", err)
		}
		if ids, ok := out[low]; ok {
			out[low] = append(ids, high)
		}
		if ids, ok := out[high]; ok {
			out[high] = append(ids, low)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate friend ids: %w", err)
	}

	for id := range out {
		slices.Sort(out[id])
	}

	return out, nil
}

// PostgresPostRepository provides PostgreSQL-backed persistence for posts.
type PostgresPostRepository struct {
	pool db.Pool
}

// NewPostgresPostRepository constructs a post repository backed by PostgreSQL.
func NewPostgresPostRepository(pool db.Pool) *PostgresPostRepository {
	return &PostgresPostRepository{pool: pool}
}

// Create stores a new post including its raw file bytes. The returned post
// carries its id but not the bytes.
func (r *PostgresPostRepository) Create(ctx context.Context, post models.Post) (models.Post, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Post{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	status := post.AssetStatus
	if strings.TrimSpace(status) == "" {
		status = models.AssetStatusNone
	}

	row := conn.QueryRow(ctx, `
        INSERT INTO posts (user_id, title, description, filename, mime_type, content, posted_on, asset_status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id
    `, post.UserID, post.Title, post.Description, post.File.Filename, post.File.MimeType, post.File.Content, post.PostedAt, status)
	if err := row.Scan(&post.ID); err != nil {
		if isForeignKeyViolation(err) {
			return models.Post{}, &MissingRecordError{Table: "users", ID: post.UserID}
		}
		return models.Post{}, fmt.Errorf("insert post: %w", err)
	}

	post.AssetStatus = status
	post.File.Content = nil
	return post, nil
}

// FindByID fetches post metadata without the file bytes.
func (r *PostgresPostRepository) FindByID(ctx context.Context, id int64) (models.Post, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Post{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	post, err := scanPost(conn.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Post{}, ErrNotFound
		}
		return models.Post{}, fmt.Errorf("select post: %w", err)
	}

	return post, nil
}

// FindContent loads the stored file of a post.
func (r *PostgresPostRepository) FindContent(ctx context.Context, id int64) (models.PostFile, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.PostFile{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var file models.PostFile
	if err := conn.QueryRow(ctx, `
        SELECT filename, mime_type, content
        FROM posts
        WHERE id = $1
    `, id).Scan(&file.Filename, &file.MimeType, &file.Content); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.PostFile{}, ErrNotFound
		}
		return models.PostFile{}, fmt.Errorf("select post content: %w", err)
	}

	return file, nil
}

// Delete removes a post and returns its metadata.
func (r *PostgresPostRepository) Delete(ctx context.Context, id int64) (models.Post, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Post{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	post, err := scanPost(conn.QueryRow(ctx, `DELETE FROM posts WHERE id = $1 RETURNING `+postColumns, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Post{}, ErrNotFound
		}
		return models.Post{}, fmt.Errorf("delete post: %w", err)
	}

	return post, nil
}

// ListByOwners returns every post owned by one of the given users, newest
// first, with equal timestamps ordered by descending id.
func (r *PostgresPostRepository) ListByOwners(ctx context.Context, ownerIDs []int64) ([]models.Post, error) {
	if len(ownerIDs) == 0 {
		return []models.Post{}, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+postColumns+`
        FROM posts
        WHERE user_id = ANY($1)
        ORDER BY posted_on DESC, id DESC
    `, ownerIDs)
	if err != nil {
		return nil, fmt.Errorf("query posts by owners: %w", err)
	}

	return collectPosts(rows)
}

// MarkAssetReady records the public location of a published post image.
func (r *PostgresPostRepository) MarkAssetReady(ctx context.Context, postID int64, location string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE posts
        SET asset_status = $2,
            asset_url = $3
        WHERE id = $1
    `, postID, models.AssetStatusReady, location)
	if err != nil {
		return fmt.Errorf("update post asset status ready: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkAssetFailed records a failed publication attempt.
func (r *PostgresPostRepository) MarkAssetFailed(ctx context.Context, postID int64) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE posts
        SET asset_status = $2,
            asset_url = ''
        WHERE id = $1
    `, postID, models.AssetStatusFailed)
	if err != nil {
		return fmt.Errorf("update post asset status failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func scanPost(row rowScanner) (models.Post, error) {
	var post models.Post
	if err := row.Scan(&post.ID, &post.UserID, &post.Title, &post.Description, &post.File.Filename,
		&post.File.MimeType, &post.PostedAt, &post.AssetStatus, &post.AssetURL); err != nil {
		return models.Post{}, err
	}
	post.PostedAt = post.PostedAt.UTC()
	return post, nil
}

func collectPosts(rows pgx.Rows) ([]models.Post, error) {
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}

	return posts, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ FriendRepository = (*PostgresFriendRepository)(nil)
var _ PostRepository = (*PostgresPostRepository)(nil)
var _ assets.StatusUpdater = (*PostgresPostRepository)(nil)
