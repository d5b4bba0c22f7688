package database

const schema = `
CREATE TABLE IF NOT EXISTS outreach (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    investor_email TEXT NOT NULL,
    investor_name TEXT,
    founder_email TEXT NOT NULL,
    founder_name TEXT,
    startup_name TEXT,
    sent_message_id TEXT UNIQUE,
    status TEXT NOT NULL DEFAULT 'sent',
    sent_timestamp DATETIME NOT NULL,
    reply_timestamp DATETIME,
    last_checked_timestamp DATETIME
);

CREATE INDEX IF NOT EXISTS idx_outreach_investor_email ON outreach(investor_email);
CREATE INDEX IF NOT EXISTS idx_outreach_status ON outreach(status);
`
