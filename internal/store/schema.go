package store

// schemaDDL is applied in order by Store.Migrate. daily_prices is
// range-partitioned by trade date so yearly partitions can be attached
// and detached without rewriting history; everything else is small
// enough to live unpartitioned.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS stocks (
		symbol        text PRIMARY KEY,
		name          text NOT NULL,
		market        text NOT NULL DEFAULT 'TWSE',
		industry      text NOT NULL DEFAULT '',
		listing_date  date,
		is_active     boolean NOT NULL DEFAULT true,
		created_at    timestamptz NOT NULL DEFAULT now(),
		updated_at    timestamptz NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS daily_prices (
		symbol      text NOT NULL,
		trade_date  date NOT NULL,
		open        double precision NOT NULL,
		high        double precision NOT NULL,
		low         double precision NOT NULL,
		close       double precision NOT NULL,
		adj_close   double precision NOT NULL,
		volume      bigint NOT NULL,
		turnover    bigint NOT NULL,
		change      double precision NOT NULL DEFAULT 0,
		change_pct  double precision NOT NULL DEFAULT 0,
		PRIMARY KEY (symbol, trade_date)
	) PARTITION BY RANGE (trade_date)`,

	`CREATE TABLE IF NOT EXISTS technical_indicators (
		symbol          text NOT NULL,
		trade_date      date NOT NULL,
		ma_5            double precision,
		ma_10           double precision,
		ma_20           double precision,
		ma_60           double precision,
		ma_120          double precision,
		ma_240          double precision,
		ema_12          double precision,
		ema_26          double precision,
		rsi_14          double precision,
		macd            double precision,
		macd_signal     double precision,
		macd_histogram  double precision,
		stochastic_k    double precision,
		stochastic_d    double precision,
		bb_upper        double precision,
		bb_middle       double precision,
		bb_lower        double precision,
		volume_ma_5     double precision,
		volume_ma_20    double precision,
		support_level   double precision,
		resistance_level double precision,
		PRIMARY KEY (symbol, trade_date)
	)`,

	`CREATE TABLE IF NOT EXISTS institutional_flows (
		symbol       text NOT NULL,
		trade_date   date NOT NULL,
		foreign_buy  bigint NOT NULL DEFAULT 0,
		foreign_sell bigint NOT NULL DEFAULT 0,
		foreign_net  bigint NOT NULL DEFAULT 0,
		trust_buy    bigint NOT NULL DEFAULT 0,
		trust_sell   bigint NOT NULL DEFAULT 0,
		trust_net    bigint NOT NULL DEFAULT 0,
		dealer_buy   bigint NOT NULL DEFAULT 0,
		dealer_sell  bigint NOT NULL DEFAULT 0,
		dealer_net   bigint NOT NULL DEFAULT 0,
		total_net    bigint NOT NULL DEFAULT 0,
		PRIMARY KEY (symbol, trade_date)
	)`,

	`CREATE TABLE IF NOT EXISTS margin_balances (
		symbol             text NOT NULL,
		trade_date         date NOT NULL,
		margin_buy         bigint NOT NULL DEFAULT 0,
		margin_sell        bigint NOT NULL DEFAULT 0,
		margin_balance     bigint NOT NULL DEFAULT 0,
		short_sell         bigint NOT NULL DEFAULT 0,
		short_cover        bigint NOT NULL DEFAULT 0,
		short_balance      bigint NOT NULL DEFAULT 0,
		short_margin_ratio double precision NOT NULL DEFAULT 0,
		PRIMARY KEY (symbol, trade_date)
	)`,

	`CREATE TABLE IF NOT EXISTS financial_statements (
		symbol               text NOT NULL,
		year                 int NOT NULL,
		quarter              int NOT NULL,
		report_type          text NOT NULL DEFAULT 'consolidated',
		revenue              bigint NOT NULL DEFAULT 0,
		gross_profit         bigint NOT NULL DEFAULT 0,
		operating_income     bigint NOT NULL DEFAULT 0,
		net_income           bigint NOT NULL DEFAULT 0,
		eps                  double precision NOT NULL DEFAULT 0,
		total_assets         bigint NOT NULL DEFAULT 0,
		total_liabilities    bigint NOT NULL DEFAULT 0,
		shareholder_equity   bigint NOT NULL DEFAULT 0,
		book_value_per_share double precision NOT NULL DEFAULT 0,
		operating_cash_flow  bigint NOT NULL DEFAULT 0,
		investing_cash_flow  bigint NOT NULL DEFAULT 0,
		financing_cash_flow  bigint NOT NULL DEFAULT 0,
		roe                  double precision NOT NULL DEFAULT 0,
		roa                  double precision NOT NULL DEFAULT 0,
		debt_ratio           double precision NOT NULL DEFAULT 0,
		current_ratio        double precision NOT NULL DEFAULT 0,
		reported_at          timestamptz NOT NULL DEFAULT now(),
		PRIMARY KEY (symbol, year, quarter, report_type)
	)`,

	`CREATE TABLE IF NOT EXISTS recommendations (
		recommendation_date   date NOT NULL,
		category              text NOT NULL,
		symbol                text NOT NULL,
		score                 double precision NOT NULL,
		rank                  int NOT NULL,
		confidence            double precision NOT NULL DEFAULT 0,
		technical_score       double precision NOT NULL DEFAULT 0,
		flow_score            double precision NOT NULL DEFAULT 0,
		fundamental_score     double precision NOT NULL DEFAULT 0,
		buy_signal            boolean NOT NULL DEFAULT false,
		sell_signal           boolean NOT NULL DEFAULT false,
		target_price          double precision NOT NULL DEFAULT 0,
		stop_loss             double precision NOT NULL DEFAULT 0,
		support_price         double precision NOT NULL DEFAULT 0,
		resistance_price      double precision NOT NULL DEFAULT 0,
		rationale             jsonb NOT NULL DEFAULT '[]',
		timeframe             text NOT NULL DEFAULT '',
		expected_holding_days int NOT NULL DEFAULT 0,
		PRIMARY KEY (recommendation_date, category, symbol)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_recommendations_rank
		ON recommendations (recommendation_date, category, rank)`,

	`CREATE TABLE IF NOT EXISTS data_update_log (
		id                     bigserial PRIMARY KEY,
		run_date               date NOT NULL,
		source                 text NOT NULL,
		target_table           text NOT NULL,
		records_processed      int NOT NULL DEFAULT 0,
		records_inserted       int NOT NULL DEFAULT 0,
		records_updated        int NOT NULL DEFAULT 0,
		records_failed         int NOT NULL DEFAULT 0,
		status                 text NOT NULL DEFAULT 'pending',
		error_summary          text NOT NULL DEFAULT '',
		started_at             timestamptz NOT NULL DEFAULT now(),
		completed_at           timestamptz,
		execution_time_seconds int NOT NULL DEFAULT 0
	)`,

	`CREATE INDEX IF NOT EXISTS idx_data_update_log_run_date
		ON data_update_log (run_date DESC)`,
}
