package sqlinline

const QUpsertUser = `--sql 7e911c8b-b327-48f6-b06f-9880653e5e34
insert into users (id, email, username, display_name, avatar_url)
values ($1::text, $2::text, nullif($3::text, ''), nullif($4::text, ''), nullif($5::text, ''))
on conflict (id) do update
set email = excluded.email,
    username = excluded.username,
    display_name = excluded.display_name,
    avatar_url = excluded.avatar_url,
    is_active = true,
    updated_at = now()
returning id, email, username, display_name, avatar_url, bio, role, is_active, created_at, updated_at;
`

const QDeactivateUser = `--sql ba6ba8c2-cd55-42ad-a7d9-3bb43aa24803
update users
set is_active = false,
    updated_at = now()
where id = $1::text;
`

const QSelectUserByID = `--sql 55529dd2-53ae-4421-a8df-2e6244f524be
select id, email, username, display_name, avatar_url, bio, role, is_active, created_at, updated_at
from users
where id = $1::text
limit 1;
`

const QSelectUserRole = `--sql 88786f30-b3bd-4307-91a7-06c6eb74a9f2
select role
from users
where id = $1::text and is_active
limit 1;
`

const QListUserGardens = `--sql a41b2d8f-4cff-4adc-8ef5-ec110aa9571c
select id, name, description, latitude, longitude, city, country, is_featured, created_at
from garden_locations
where user_id = $1::text
  and status = 'approved'
  and is_public
order by created_at desc
limit $2::int;
`
