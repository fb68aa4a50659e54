package store

const schema = `
-- One row per link per render pass.
CREATE TABLE IF NOT EXISTS link_samples (
    ts        INTEGER NOT NULL,
    dev1      TEXT    NOT NULL,
    port1     TEXT    NOT NULL,
    dev2      TEXT    NOT NULL,
    port2     TEXT    NOT NULL,
    out1_mbps REAL    NOT NULL,
    out2_mbps REAL    NOT NULL,
    PRIMARY KEY (ts, dev1, port1, dev2, port2)
) WITHOUT ROWID;

CREATE INDEX IF NOT EXISTS idx_link_samples_ts ON link_samples (ts);
`
