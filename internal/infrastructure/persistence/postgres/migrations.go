package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: IDENTITY
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create users and course catalog
-- Version: 001

CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    email VARCHAR(255) NOT NULL UNIQUE,
    display_name VARCHAR(100) NOT NULL DEFAULT '',
    password_hash VARCHAR(100) NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

-- Course catalog: courses and their modules. The catalog is reference data;
-- module completions are validated against it before being recorded.
CREATE TABLE IF NOT EXISTS courses (
    id VARCHAR(100) PRIMARY KEY,
    title VARCHAR(200) NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS course_modules (
    id VARCHAR(100) NOT NULL,
    course_id VARCHAR(100) NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
    title VARCHAR(200) NOT NULL DEFAULT '',
    position INTEGER NOT NULL DEFAULT 0,

    PRIMARY KEY (course_id, id)
);

CREATE INDEX IF NOT EXISTS idx_course_modules_course ON course_modules(course_id, position);
`

const migration001Down = `
DROP TABLE IF EXISTS course_modules;
DROP TABLE IF EXISTS courses;
DROP TABLE IF EXISTS users;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: COMPLETION EVENT LOG
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create the completion event log
-- Version: 002

-- The append-only source of truth. The unique index over
-- (user_id, resource_id, resource_type) is what makes ingestion idempotent:
-- a duplicate submission hits the index instead of creating a second row.
CREATE TABLE IF NOT EXISTS completion_events (
    seq BIGSERIAL PRIMARY KEY,
    id UUID NOT NULL,
    user_id UUID NOT NULL,
    resource_id VARCHAR(200) NOT NULL,
    resource_type VARCHAR(20) NOT NULL,
    domain VARCHAR(100) NOT NULL,
    platform VARCHAR(50) NOT NULL DEFAULT '',
    course_id VARCHAR(100) NOT NULL DEFAULT '',
    module_id VARCHAR(100) NOT NULL DEFAULT '',
    completed_at TIMESTAMP WITH TIME ZONE NOT NULL,
    duration_seconds INTEGER NOT NULL DEFAULT 0,
    recorded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_resource_type CHECK (
        resource_type IN ('video', 'article', 'tutorial', 'documentation', 'github', 'module')
    ),
    CONSTRAINT valid_duration CHECK (duration_seconds >= 0),

    UNIQUE (user_id, resource_id, resource_type)
);

CREATE INDEX IF NOT EXISTS idx_completion_events_user ON completion_events(user_id, completed_at DESC);
CREATE INDEX IF NOT EXISTS idx_completion_events_user_domain ON completion_events(user_id, domain);
`

const migration002Down = `
DROP TABLE IF EXISTS completion_events;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: DERIVED PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create derived progress tables
-- Version: 003

-- Per-user aggregate. version drives optimistic locking across instances.
CREATE TABLE IF NOT EXISTS user_stats (
    user_id UUID PRIMARY KEY,
    total_xp INTEGER NOT NULL DEFAULT 0,
    level VARCHAR(20) NOT NULL DEFAULT 'Beginner',
    progress_percent INTEGER NOT NULL DEFAULT 0,
    completed_resources INTEGER NOT NULL DEFAULT 0,
    total_study_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
    streak_days INTEGER NOT NULL DEFAULT 0,
    last_activity_at TIMESTAMP WITH TIME ZONE,
    version BIGINT NOT NULL DEFAULT 0,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_xp CHECK (total_xp >= 0),
    CONSTRAINT valid_level CHECK (level IN ('Beginner', 'Intermediate', 'Advanced', 'Expert')),
    CONSTRAINT valid_percent CHECK (progress_percent >= 0 AND progress_percent <= 100)
);

-- Course progress with one row per completed module.
CREATE TABLE IF NOT EXISTS course_progress (
    user_id UUID NOT NULL,
    course_id VARCHAR(100) NOT NULL,
    total_modules INTEGER NOT NULL,
    percent_complete INTEGER NOT NULL DEFAULT 0,
    completed_at TIMESTAMP WITH TIME ZONE,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (user_id, course_id)
);

CREATE TABLE IF NOT EXISTS course_progress_modules (
    user_id UUID NOT NULL,
    course_id VARCHAR(100) NOT NULL,
    module_id VARCHAR(100) NOT NULL,
    completed_at TIMESTAMP WITH TIME ZONE NOT NULL,

    PRIMARY KEY (user_id, course_id, module_id)
);

-- Awarded achievements. The unique pair enforces once-per-user semantics
-- even when two instances race on the same threshold.
CREATE TABLE IF NOT EXISTS achievements (
    id BIGSERIAL PRIMARY KEY,
    user_id UUID NOT NULL,
    achievement_type VARCHAR(50) NOT NULL,
    title VARCHAR(100) NOT NULL DEFAULT '',
    xp_awarded INTEGER NOT NULL DEFAULT 0,
    unlocked_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    UNIQUE (user_id, achievement_type)
);

CREATE INDEX IF NOT EXISTS idx_achievements_user ON achievements(user_id, unlocked_at DESC);
`

const migration003Down = `
DROP TABLE IF EXISTS achievements;
DROP TABLE IF EXISTS course_progress_modules;
DROP TABLE IF EXISTS course_progress;
DROP TABLE IF EXISTS user_stats;
`
