package sqlinline

const QListGardens = `--sql 13175cba-ddca-4a99-bdec-1848111516fa
select
  g.id,
  g.user_id,
  g.name,
  g.description,
  g.latitude,
  g.longitude,
  g.city,
  g.country,
  g.is_featured,
  g.created_at,
  u.display_name,
  u.avatar_url,
  (select count(*) from photos p where p.garden_location_id = g.id)::int as photo_count
from garden_locations g
left join users u on u.id = g.user_id
where g.status = 'approved'
  and g.is_public
  and ($1::boolean = false or g.is_featured)
order by g.created_at desc
limit $2::int;
`

const QSelectGarden = `--sql a953c744-baa5-4958-acac-512b6ec3fcf2
select
  g.id,
  g.user_id,
  g.name,
  g.description,
  g.latitude,
  g.longitude,
  g.address,
  g.city,
  g.country,
  g.species_ids,
  g.is_featured,
  g.is_public,
  g.status,
  g.created_at,
  g.updated_at,
  u.display_name,
  u.avatar_url
from garden_locations g
left join users u on u.id = g.user_id
where g.id = $1::uuid
  and g.status = 'approved'
  and g.is_public
limit 1;
`

const QListGardenPhotos = `--sql 1e7ed4a9-184f-4998-bd4a-7cb571dcd013
select id, user_id, storage_path, thumbnail_path, title, description, is_primary, vote_count, wilson_score, created_at
from photos
where garden_location_id = $1::uuid
order by is_primary desc, wilson_score desc, created_at desc
limit $2::int;
`

const QInsertGarden = `--sql 4db91099-2f4f-4379-bc25-f129452b9ed6
with g as (
  insert into garden_locations (
    user_id,
    name,
    description,
    latitude,
    longitude,
    address,
    city,
    country,
    species_ids,
    status
  ) values (
    $1::text,
    $2::text,
    nullif($3::text, ''),
    $4::float8,
    $5::float8,
    nullif($6::text, ''),
    nullif($7::text, ''),
    nullif($8::text, ''),
    $9::text[],
    'pending'
  )
  returning id, created_at, updated_at
), m as (
  insert into moderation_queue (content_type, content_id, status)
  select 'garden', id, 'pending' from g
)
select id, created_at, updated_at from g;
`

const QNearbyGardens = `--sql 3afa0755-5877-45fc-b9f9-f238e5f86426
select id, name, description, distance_km, latitude, longitude, photo_url, vote_count
from (
  select
    g.id,
    g.name,
    g.description,
    g.latitude,
    g.longitude,
    6371 * 2 * asin(sqrt(
      power(sin(radians(g.latitude - $1::float8) / 2), 2) +
      cos(radians($1::float8)) * cos(radians(g.latitude)) *
      power(sin(radians(g.longitude - $2::float8) / 2), 2)
    )) as distance_km,
    (
      select p.storage_path
      from photos p
      where p.garden_location_id = g.id
      order by p.is_primary desc, p.created_at asc
      limit 1
    ) as photo_url,
    coalesce((select sum(p.vote_count) from photos p where p.garden_location_id = g.id), 0)::int as vote_count
  from garden_locations g
  where g.status = 'approved'
    and g.is_public
) d
where distance_km <= $3::float8
order by distance_km asc
limit $4::int;
`
