package sqlinline

const QListModeration = `--sql 2d99bedc-3d52-4c5f-87f4-556d57cee029
select id, content_type, content_id, reported_by, reason, status, moderator_id, moderator_notes, created_at, resolved_at
from moderation_queue
where ($1::text = 'all' or status = $1::text)
order by created_at desc
limit $2::int;
`

const QResolveModeration = `--sql 66817d90-9ff0-4182-b38e-543c3086c2a7
update moderation_queue
set status = $2::text,
    moderator_id = $3::text,
    moderator_notes = nullif($4::text, ''),
    resolved_at = now()
where id = $1::uuid
returning content_type, content_id;
`

const QSetGardenStatus = `--sql 303e48cb-6640-4d04-866c-f1094b662b0a
update garden_locations
set status = $2::text,
    updated_at = now()
where id = $1::uuid;
`

const QSetCommentVisibility = `--sql 7f582184-9e8e-42a2-b034-5f6aac85ecd1
update comments
set is_visible = $2::boolean
where id = $1::uuid;
`
