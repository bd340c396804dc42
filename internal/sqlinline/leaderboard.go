package sqlinline

const QListPhotoTallies = `--sql b96e6ef4-0998-4e91-bea3-2c6360059ba7
select
  p.id,
  count(v.id) filter (where v.value = 1)::int as up_votes,
  count(v.id) filter (where v.value = -1)::int as down_votes
from photos p
left join votes v on v.photo_id = p.id
group by p.id;
`

const QUpdatePhotoScore = `--sql c79256a8-d2e3-4a65-8a99-bb3f0e793e14
update photos
set vote_count = $2::int,
    wilson_score = $3::float8
where id = $1::uuid;
`

const QTopPhotos = `--sql 90f214d3-813e-434b-94e7-95a07fc22b6d
select
  p.id,
  p.user_id,
  p.garden_location_id,
  p.storage_path,
  p.thumbnail_path,
  p.title,
  p.vote_count,
  p.wilson_score,
  p.created_at,
  u.display_name,
  u.avatar_url,
  g.name
from photos p
left join users u on u.id = p.user_id
left join garden_locations g on g.id = p.garden_location_id
where g.id is null or (g.status = 'approved' and g.is_public)
order by p.wilson_score desc, p.vote_count desc, p.created_at asc
limit $1::int;
`
