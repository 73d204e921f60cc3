// Package rest implements the api ports against the labor-cost backend's
// REST interface.
//
// The backend is the source of truth for every derived value; this client
// never retries and never caches. Each request reads the current token
// through the injected TokenSource, so a cleared token takes effect on the
// very next call.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"flboard/internal/api"
	"flboard/internal/core"
)

// TokenSource supplies the bearer token for outgoing requests. An empty
// token means logged out; requests are then sent unauthenticated and the
// backend answers 401.
type TokenSource interface {
	Token() string
}

type Client struct {
	base   *url.URL
	http   *http.Client
	tokens TokenSource
}

// Ensure every port is implemented.
var _ api.Backend = (*Client)(nil)

// New creates a client for the backend at baseURL.
func New(baseURL string, tokens TokenSource, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base URL must be http(s): %q", baseURL)
	}
	return &Client{
		base:   u,
		http:   &http.Client{Timeout: timeout},
		tokens: tokens,
	}, nil
}

// wire shapes

type (
	loginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	loginResponse struct {
		Token string `json:"token"`
	}

	meResponse struct {
		ID             int64  `json:"id"`
		Email          string `json:"email"`
		Name           string `json:"name"`
		Role           string `json:"role,omitempty"`
		BaseHourlyWage int64  `json:"base_hourly_wage,omitempty"`
	}

	wireWageRow struct {
		UserID         int64  `json:"user_id"`
		UserName       string `json:"user_name"`
		BaseHourlyWage int64  `json:"base_hourly_wage"`
		WorkMinutes    int    `json:"work_minutes"`
		BreakMinutes   int    `json:"break_minutes"`
		NightMinutes   int    `json:"night_minutes"`
		DailyWage      int64  `json:"daily_wage"`
	}

	wireDailySummary struct {
		Date                  string        `json:"date"`
		Sales                 *int64        `json:"sales"`
		SalesNote             string        `json:"sales_note"`
		TotalWage             int64         `json:"total_wage"`
		PartTimeWage          int64         `json:"part_time_wage"`
		FixedWage             int64         `json:"fixed_wage"`
		WageRows              []wireWageRow `json:"wage_rows"`
		FoodCostsTotal        int64         `json:"food_costs_total"`
		FullTimeEmployeeCount *int          `json:"full_time_employee_count"`
		LRatio                *float64      `json:"l_ratio"`
		FRatio                *float64      `json:"f_ratio"`
		FLRatio               *float64      `json:"f_l_ratio"`
	}

	wireFoodCostItem struct {
		ID        *int64 `json:"id,omitempty"`
		Category  string `json:"category"`
		AmountYen int64  `json:"amount_yen"`
		Note      string `json:"note,omitempty"`
	}

	wireSales struct {
		AmountYen *int64 `json:"amount_yen"`
		Note      string `json:"note,omitempty"`
	}

	wireFixedCosts struct {
		FullTimeEmployeeCount int `json:"full_time_employee_count"`
	}

	wireMonthlyDay struct {
		Date              string   `json:"date"`
		DailySales        *int64   `json:"daily_sales"`
		TotalDailyWage    int64    `json:"total_daily_wage"`
		DailyFoodCosts    *int64   `json:"daily_food_costs"`
		LRatio            *float64 `json:"l_ratio"`
		FRatio            *float64 `json:"f_ratio"`
		FLRatio           *float64 `json:"fl_ratio"`
		CumulativeFLRatio *float64 `json:"cumulative_fl_ratio"`
	}

	wireMonthlySummary struct {
		Year             int              `json:"year"`
		Month            int              `json:"month"`
		Days             []wireMonthlyDay `json:"days"`
		MonthlySales     *int64           `json:"monthly_sales"`
		MonthlyWage      int64            `json:"monthly_wage"`
		MonthlyFoodCosts *int64           `json:"monthly_food_costs"`
		MonthlyLRatio    *float64         `json:"monthly_l_ratio"`
		MonthlyFRatio    *float64         `json:"monthly_f_ratio"`
		MonthlyFLRatio   *float64         `json:"monthly_f_l_ratio"`
	}

	wireUser struct {
		ID             int64     `json:"id"`
		Email          string    `json:"email"`
		Name           string    `json:"name"`
		Role           string    `json:"role,omitempty"`
		BaseHourlyWage int64     `json:"base_hourly_wage,omitempty"`
		CreatedAt      time.Time `json:"created_at"`
	}

	wireUserPatch struct {
		Role           string `json:"role"`
		BaseHourlyWage int64  `json:"base_hourly_wage"`
	}

	wireAdminLog struct {
		ID            int64     `json:"id"`
		AdminUserName string    `json:"admin_user_name"`
		Action        string    `json:"action"`
		Details       string    `json:"details"`
		CreatedAt     time.Time `json:"created_at"`
	}

	wireAdminLogs struct {
		Logs       []wireAdminLog `json:"logs"`
		TotalCount int            `json:"total_count"`
	}

	wireError struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
)

func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out loginResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", nil, loginRequest{Email: email, Password: password}, &out)
	if err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", errors.New("login succeeded but no token in response")
	}
	return out.Token, nil
}

func (c *Client) WhoAmI(ctx context.Context) (core.User, error) {
	var out meResponse
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &out); err != nil {
		return core.User{}, err
	}
	return core.User{
		ID:             out.ID,
		Email:          out.Email,
		Name:           out.Name,
		Role:           core.ParseRole(out.Role),
		BaseHourlyWage: out.BaseHourlyWage,
	}, nil
}

func (c *Client) DailySummary(ctx context.Context, date core.Date) (core.DailySummary, error) {
	var out wireDailySummary
	q := url.Values{"date": {date.String()}}
	if err := c.do(ctx, http.MethodGet, "/v1/daily_summary", q, nil, &out); err != nil {
		return core.DailySummary{}, err
	}
	rows := make([]core.WageRow, 0, len(out.WageRows))
	for _, r := range out.WageRows {
		rows = append(rows, core.WageRow{
			UserID:         r.UserID,
			UserName:       r.UserName,
			BaseHourlyWage: r.BaseHourlyWage,
			WorkMinutes:    r.WorkMinutes,
			BreakMinutes:   r.BreakMinutes,
			NightMinutes:   r.NightMinutes,
			DailyWage:      r.DailyWage,
		})
	}
	return core.DailySummary{
		Date:                  date,
		Sales:                 out.Sales,
		SalesNote:             out.SalesNote,
		TotalWage:             out.TotalWage,
		PartTimeWage:          out.PartTimeWage,
		FixedWage:             out.FixedWage,
		WageRows:              rows,
		FoodCostsTotal:        out.FoodCostsTotal,
		FullTimeEmployeeCount: out.FullTimeEmployeeCount,
		LRatio:                out.LRatio,
		FRatio:                out.FRatio,
		FLRatio:               out.FLRatio,
	}, nil
}

func (c *Client) FoodCosts(ctx context.Context, date core.Date) ([]core.FoodCostItem, error) {
	var out []wireFoodCostItem
	q := url.Values{"date": {date.String()}}
	if err := c.do(ctx, http.MethodGet, "/v1/food_costs", q, nil, &out); err != nil {
		return nil, err
	}
	items := make([]core.FoodCostItem, 0, len(out))
	for _, w := range out {
		it := core.FoodCostItem{
			Category:  core.FoodCategory(w.Category),
			AmountYen: w.AmountYen,
			Note:      w.Note,
		}
		if w.ID != nil {
			it.ID = *w.ID
		}
		items = append(items, it)
	}
	return items, nil
}

func (c *Client) ReplaceFoodCosts(ctx context.Context, date core.Date, items []core.FoodCostItem) error {
	// Bulk replace: rows with an ID are updates, rows without are inserts.
	// The server assigns IDs for new rows; the caller reloads to see them.
	body := make([]wireFoodCostItem, 0, len(items))
	for _, it := range items {
		w := wireFoodCostItem{
			Category:  string(it.Category),
			AmountYen: it.AmountYen,
			Note:      it.Note,
		}
		if it.ID != 0 {
			id := it.ID
			w.ID = &id
		}
		body = append(body, w)
	}
	q := url.Values{"date": {date.String()}}
	return c.do(ctx, http.MethodPut, "/v1/food_costs", q, body, nil)
}

func (c *Client) PutSales(ctx context.Context, date core.Date, amount *int64, note string) error {
	q := url.Values{"date": {date.String()}}
	return c.do(ctx, http.MethodPut, "/v1/sales", q, wireSales{AmountYen: amount, Note: note}, nil)
}

func (c *Client) PutFixedCosts(ctx context.Context, date core.Date, employeeCount int) error {
	if employeeCount < 0 {
		return core.ErrNegativeCount
	}
	q := url.Values{"date": {date.String()}}
	return c.do(ctx, http.MethodPut, "/v1/daily_fixed_costs", q, wireFixedCosts{FullTimeEmployeeCount: employeeCount}, nil)
}

func (c *Client) MonthlySummary(ctx context.Context, year, month int) (core.MonthlyReport, error) {
	if !core.ValidMonth(month) {
		return core.MonthlyReport{}, fmt.Errorf("%w: %d", core.ErrInvalidMonth, month)
	}
	var out wireMonthlySummary
	q := url.Values{
		"year":  {strconv.Itoa(year)},
		"month": {strconv.Itoa(month)},
	}
	if err := c.do(ctx, http.MethodGet, "/v1/monthly_summary", q, nil, &out); err != nil {
		return core.MonthlyReport{}, err
	}
	days := make([]core.MonthlyDay, 0, len(out.Days))
	for _, d := range out.Days {
		date, err := core.ParseDate(d.Date)
		if err != nil {
			return core.MonthlyReport{}, fmt.Errorf("monthly summary day: %w", err)
		}
		days = append(days, core.MonthlyDay{
			Date:              date,
			Sales:             d.DailySales,
			Wage:              d.TotalDailyWage,
			FoodCosts:         d.DailyFoodCosts,
			LRatio:            d.LRatio,
			FRatio:            d.FRatio,
			FLRatio:           d.FLRatio,
			CumulativeFLRatio: d.CumulativeFLRatio,
		})
	}
	return core.MonthlyReport{
		Year:      year,
		Month:     month,
		Days:      days,
		Sales:     out.MonthlySales,
		Wage:      out.MonthlyWage,
		FoodCosts: out.MonthlyFoodCosts,
		LRatio:    out.MonthlyLRatio,
		FRatio:    out.MonthlyFRatio,
		FLRatio:   out.MonthlyFLRatio,
	}, nil
}

func (c *Client) Users(ctx context.Context) ([]core.User, error) {
	return c.fetchUsers(ctx, nil)
}

func (c *Client) PendingUsers(ctx context.Context) ([]core.User, error) {
	return c.fetchUsers(ctx, url.Values{"status": {"pending"}})
}

func (c *Client) fetchUsers(ctx context.Context, q url.Values) ([]core.User, error) {
	var out []wireUser
	if err := c.do(ctx, http.MethodGet, "/users", q, nil, &out); err != nil {
		return nil, err
	}
	users := make([]core.User, 0, len(out))
	for _, u := range out {
		users = append(users, core.User{
			ID:             u.ID,
			Email:          u.Email,
			Name:           u.Name,
			Role:           core.ParseRole(u.Role),
			BaseHourlyWage: u.BaseHourlyWage,
			CreatedAt:      u.CreatedAt,
		})
	}
	return users, nil
}

func (c *Client) ApproveUser(ctx context.Context, id int64, role core.Role, hourlyWage int64) error {
	path := fmt.Sprintf("/users/%d/approve", id)
	return c.do(ctx, http.MethodPost, path, nil, wireUserPatch{Role: string(role), BaseHourlyWage: hourlyWage}, nil)
}

func (c *Client) UpdateUser(ctx context.Context, id int64, role core.Role, hourlyWage int64) error {
	path := fmt.Sprintf("/users/%d", id)
	return c.do(ctx, http.MethodPatch, path, nil, wireUserPatch{Role: string(role), BaseHourlyWage: hourlyWage}, nil)
}

func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/users/%d", id)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) AdminLogs(ctx context.Context, page, perPage int) (core.AdminLogPage, error) {
	var out wireAdminLogs
	q := url.Values{
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(perPage)},
	}
	if err := c.do(ctx, http.MethodGet, "/v1/admin_logs", q, nil, &out); err != nil {
		return core.AdminLogPage{}, err
	}
	logs := make([]core.AdminLog, 0, len(out.Logs))
	for _, l := range out.Logs {
		logs = append(logs, core.AdminLog{
			ID:            l.ID,
			AdminUserName: l.AdminUserName,
			Action:        l.Action,
			Details:       l.Details,
			CreatedAt:     l.CreatedAt,
		})
	}
	return core.AdminLogPage{
		Logs:       logs,
		Page:       page,
		PerPage:    perPage,
		TotalCount: out.TotalCount,
	}, nil
}

// do issues one request and decodes the response into out when non-nil.
// There is no retry: the user re-triggers failed operations explicitly.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s %s: encode request: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%s %s: %w", method, path, api.ErrUnauthorized)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s: %s", method, path, serverMessage(resp))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s %s: decode response: %w", method, path, err)
		}
	}
	return nil
}

// serverMessage extracts a human-readable error from a failed response,
// preferring the backend's error field over a generic status line.
func serverMessage(resp *http.Response) string {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && len(raw) > 0 {
		var we wireError
		if json.Unmarshal(raw, &we) == nil {
			if we.Error != "" {
				return we.Error
			}
			if we.Message != "" {
				return we.Message
			}
		}
	}
	return fmt.Sprintf("request failed (%s)", resp.Status)
}
